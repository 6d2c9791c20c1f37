package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TopicRepo provides access to the shared topic tree. Topic creation
// outside the expansion transaction is limited to seeding.
type TopicRepo interface {
	Create(ctx context.Context, t *Topic) error
	Get(ctx context.Context, id uuid.UUID) (*Topic, error)
	Roots(ctx context.Context) ([]Topic, error)
	ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]Topic, error)
	All(ctx context.Context) ([]Topic, error)
}

type topicRepo struct {
	db *gorm.DB
}

func (r *topicRepo) Create(ctx context.Context, t *Topic) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	// A topic's parent must already exist; the FK alone doesn't cover
	// sqlite deployments with foreign_keys off.
	if t.ParentID != nil {
		var n int64
		if err := r.db.WithContext(ctx).Model(&Topic{}).Where("id = ?", *t.ParentID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("create topic %q: parent %s does not exist", t.Name, *t.ParentID)
		}
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *topicRepo) Get(ctx context.Context, id uuid.UUID) (*Topic, error) {
	var t Topic
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *topicRepo) Roots(ctx context.Context) ([]Topic, error) {
	var out []Topic
	err := r.db.WithContext(ctx).Where("parent_id IS NULL").Order("created_at").Find(&out).Error
	return out, err
}

func (r *topicRepo) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]Topic, error) {
	var out []Topic
	err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *topicRepo) All(ctx context.Context) ([]Topic, error) {
	var out []Topic
	err := r.db.WithContext(ctx).Order("created_at").Find(&out).Error
	return out, err
}
