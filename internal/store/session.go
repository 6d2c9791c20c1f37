package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepo persists quiz sessions and the questions served in them.
type SessionRepo interface {
	Create(ctx context.Context, sess *QuizSession) error
	Get(ctx context.Context, id uuid.UUID) (*QuizSession, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	End(ctx context.Context, id uuid.UUID, at time.Time) error
	ForUser(ctx context.Context, userID uuid.UUID, limit int) ([]QuizSession, error)

	AppendServed(ctx context.Context, q *ServedQuestion) error
	Served(ctx context.Context, sessionID uuid.UUID) ([]ServedQuestion, error)
	ServedIDs(ctx context.Context, sessionID uuid.UUID) ([]string, error)
	LastServed(ctx context.Context, sessionID uuid.UUID) (*ServedQuestion, error)

	// RecordAction marks the pending question with the learner's action
	// and updates the session tallies in the same transaction.
	RecordAction(ctx context.Context, servedID uuid.UUID, action, submitted string, isCorrect *bool, interest float64) error

	// InterestByTopic sums the user's accumulated interest signal per
	// topic across all their sessions.
	InterestByTopic(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]float64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func (r *sessionRepo) Create(ctx context.Context, sess *QuizSession) error {
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	now := time.Now().UTC()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	if sess.LastActivityAt.IsZero() {
		sess.LastActivityAt = now
	}
	return r.db.WithContext(ctx).Create(sess).Error
}

func (r *sessionRepo) Get(ctx context.Context, id uuid.UUID) (*QuizSession, error) {
	var sess QuizSession
	err := r.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *sessionRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&QuizSession{}).
		Where("id = ?", id).
		Update("last_activity_at", at).Error
}

func (r *sessionRepo) End(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&QuizSession{}).
		Where("id = ? AND ended_at IS NULL", id).
		Updates(map[string]any{
			"ended_at":         at,
			"last_activity_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) ForUser(ctx context.Context, userID uuid.UUID, limit int) ([]QuizSession, error) {
	var out []QuizSession
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *sessionRepo) AppendServed(ctx context.Context, q *ServedQuestion) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.ServedAt.IsZero() {
		q.ServedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *sessionRepo) Served(ctx context.Context, sessionID uuid.UUID) ([]ServedQuestion, error) {
	var out []ServedQuestion
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("sequence ASC").
		Find(&out).Error
	return out, err
}

func (r *sessionRepo) ServedIDs(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&ServedQuestion{}).
		Where("session_id = ?", sessionID).
		Order("sequence ASC").
		Pluck("question_id", &ids).Error
	return ids, err
}

func (r *sessionRepo) LastServed(ctx context.Context, sessionID uuid.UUID) (*ServedQuestion, error) {
	var q ServedQuestion
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("sequence DESC").
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *sessionRepo) RecordAction(ctx context.Context, servedID uuid.UUID, action, submitted string, isCorrect *bool, interest float64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q ServedQuestion
		err := tx.First(&q, "id = ?", servedID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if q.Action != "" {
			return ErrAlreadyAnswered
		}

		q.Action = action
		q.SubmittedValue = submitted
		q.IsCorrect = isCorrect
		q.InterestSignal = interest
		q.AnsweredAt = &now
		if err := tx.Save(&q).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"last_activity_at": now,
			"total_questions":  gorm.Expr("total_questions + 1"),
		}
		if isCorrect != nil && *isCorrect {
			updates["total_correct"] = gorm.Expr("total_correct + 1")
		}
		return tx.Model(&QuizSession{}).
			Where("id = ?", q.SessionID).
			Updates(updates).Error
	})
}

func (r *sessionRepo) InterestByTopic(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]float64, error) {
	type row struct {
		TopicID uuid.UUID
		Total   float64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&ServedQuestion{}).
		Select("served_questions.topic_id AS topic_id, SUM(served_questions.interest_signal) AS total").
		Joins("JOIN quiz_sessions ON quiz_sessions.id = served_questions.session_id").
		Where("quiz_sessions.user_id = ?", userID).
		Group("served_questions.topic_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]float64, len(rows))
	for _, r := range rows {
		out[r.TopicID] = r.Total
	}
	return out, nil
}
