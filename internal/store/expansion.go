package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Expansion is the outcome of one ontology generation: new subtopics
// under a parent, unlocked for the triggering user.
type Expansion struct {
	UserID       uuid.UUID
	ParentID     uuid.UUID
	TriggerLevel string
	Topics       []Topic
}

// CommitExpansion persists an expansion as a single transaction: the
// new topic rows, an unlocked mastery record per topic for the user,
// and one unlock event per topic. Either everything lands or nothing
// does; a crash mid-generation leaves no dangling locked topics.
func (s *Store) CommitExpansion(ctx context.Context, exp Expansion) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range exp.Topics {
			t := &exp.Topics[i]
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			if t.CreatedAt.IsZero() {
				t.CreatedAt = now
			}
			t.ParentID = &exp.ParentID
			if err := tx.Create(t).Error; err != nil {
				return err
			}

			rec := NewMasteryRecord(exp.UserID, t.ID, true)
			if err := tx.Create(rec).Error; err != nil {
				return err
			}

			ev := &UnlockEvent{
				ID:            uuid.New(),
				UserID:        exp.UserID,
				TopicID:       t.ID,
				ParentTopicID: &exp.ParentID,
				TriggerLevel:  exp.TriggerLevel,
				CreatedAt:     now,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic_id"}},
				DoNothing: true,
			}).Create(ev).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UnlockExisting grants a user access to topics that already exist in
// the tree, recording mastery rows and unlock events without creating
// topics. Used when a later user crosses a threshold on a parent whose
// subtopics were generated for someone else.
func (s *Store) UnlockExisting(ctx context.Context, userID uuid.UUID, parentID uuid.UUID, triggerLevel string, topics []Topic) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range topics {
			t := &topics[i]

			rec := NewMasteryRecord(userID, t.ID, true)
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "topic_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"unlocked":    true,
					"unlocked_at": now,
					"updated_at":  now,
				}),
			}).Create(rec).Error
			if err != nil {
				return err
			}

			ev := &UnlockEvent{
				ID:            uuid.New(),
				UserID:        userID,
				TopicID:       t.ID,
				ParentTopicID: &parentID,
				TriggerLevel:  triggerLevel,
				CreatedAt:     now,
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic_id"}},
				DoNothing: true,
			}).Create(ev).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
