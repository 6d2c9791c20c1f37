package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MasteryRepo owns persistence of per-(user,topic) mastery records.
// Mutation of transition fields goes through Update, which holds a
// per-row exclusivity guarantee for the duration of the callback.
type MasteryRepo interface {
	Get(ctx context.Context, userID, topicID uuid.UUID) (*MasteryRecord, error)
	GetOrCreate(ctx context.Context, userID, topicID uuid.UUID, unlocked bool) (*MasteryRecord, error)
	ForUser(ctx context.Context, userID uuid.UUID) ([]MasteryRecord, error)

	// Update loads the record under a row lock, applies fn, and saves.
	// fn sees the freshest committed state; concurrent calls for the
	// same (user, topic) serialize.
	Update(ctx context.Context, userID, topicID uuid.UUID, fn func(*MasteryRecord) error) (*MasteryRecord, error)

	// TryAcquireGeneration flips GenerationTriggered from false to true
	// with a conditional update. Exactly one of any set of concurrent
	// callers observes true.
	TryAcquireGeneration(ctx context.Context, userID, topicID uuid.UUID) (bool, error)

	// ReleaseGeneration clears the flag after a soft-failed attempt so
	// a later crossing may retry.
	ReleaseGeneration(ctx context.Context, userID, topicID uuid.UUID) error
}

type masteryRepo struct {
	db *gorm.DB
}

// NewMasteryRecord builds an in-memory record at the starting level.
func NewMasteryRecord(userID, topicID uuid.UUID, unlocked bool) *MasteryRecord {
	now := time.Now().UTC()
	rec := &MasteryRecord{
		ID:          uuid.New(),
		UserID:      userID,
		TopicID:     topicID,
		Level:       "novice",
		LevelCounts: datatypes.NewJSONType(map[string]int{}),
		Unlocked:    unlocked,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if unlocked {
		rec.UnlockedAt = &now
	}
	return rec
}

func (r *masteryRepo) Get(ctx context.Context, userID, topicID uuid.UUID) (*MasteryRecord, error) {
	var rec MasteryRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *masteryRepo) GetOrCreate(ctx context.Context, userID, topicID uuid.UUID, unlocked bool) (*MasteryRecord, error) {
	rec, err := r.Get(ctx, userID, topicID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rec = NewMasteryRecord(userID, topicID, unlocked)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic_id"}},
			DoNothing: true,
		}).
		Create(rec).Error
	if err != nil {
		return nil, err
	}
	// Re-read in case a concurrent creator won the conflict.
	return r.Get(ctx, userID, topicID)
}

func (r *masteryRepo) ForUser(ctx context.Context, userID uuid.UUID) ([]MasteryRecord, error) {
	var out []MasteryRecord
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&out).Error
	return out, err
}

func (r *masteryRepo) Update(ctx context.Context, userID, topicID uuid.UUID, fn func(*MasteryRecord) error) (*MasteryRecord, error) {
	var updated *MasteryRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if supportsRowLocks(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var rec MasteryRecord
		err := q.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := fn(&rec); err != nil {
			return err
		}

		rec.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		updated = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *masteryRepo) TryAcquireGeneration(ctx context.Context, userID, topicID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&MasteryRecord{}).
		Where("user_id = ? AND topic_id = ? AND generation_triggered = ?", userID, topicID, false).
		Updates(map[string]any{
			"generation_triggered": true,
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *masteryRepo) ReleaseGeneration(ctx context.Context, userID, topicID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&MasteryRecord{}).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		Updates(map[string]any{
			"generation_triggered": false,
			"updated_at":           time.Now().UTC(),
		}).Error
}
