package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnlockRepo is the append-only log of topics becoming available.
type UnlockRepo interface {
	// Append records an unlock. Re-recording the same (user, topic)
	// pair is a no-op, not an error.
	Append(ctx context.Context, ev *UnlockEvent) error
	ForUser(ctx context.Context, userID uuid.UUID) ([]UnlockEvent, error)
}

type unlockRepo struct {
	db *gorm.DB
}

func (r *unlockRepo) Append(ctx context.Context, ev *UnlockEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic_id"}},
			DoNothing: true,
		}).
		Create(ev).Error
}

func (r *unlockRepo) ForUser(ctx context.Context, userID uuid.UUID) ([]UnlockEvent, error) {
	var out []UnlockEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&out).Error
	return out, err
}
