package mastery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/store"
)

// Result describes the outcome of recording one answer.
type Result struct {
	Level        Level
	Previous     Level
	Advanced     bool
	CountAtLevel int
	Threshold    int
	Correct      bool
}

// Status is a read-only view of one topic's mastery for a user.
type Status struct {
	TopicID       uuid.UUID
	Level         Level
	CountAtLevel  int
	Threshold     int
	TotalAnswered int
	TotalCorrect  int
	Unlocked      bool
	Description   string
}

// Ledger records answers against mastery records and reports level
// transitions. All mutation happens inside the repository's row-locked
// update, so concurrent answers for the same (user, topic) serialize.
type Ledger struct {
	repo store.MasteryRepo
	log  *logger.Logger
}

// NewLedger creates a Ledger backed by the given repository.
func NewLedger(repo store.MasteryRepo, log *logger.Logger) *Ledger {
	return &Ledger{repo: repo, log: log.With("component", "mastery")}
}

// RecordAnswer applies one answer to the user's record for the topic.
// Wrong answers count toward totals but never advance the level.
// Advancement moves exactly one level per answer; counts accumulated
// at a level carry over if the learner returns to it later.
func (l *Ledger) RecordAnswer(ctx context.Context, userID, topicID uuid.UUID, correct bool) (Result, error) {
	var res Result
	_, err := l.repo.Update(ctx, userID, topicID, func(rec *store.MasteryRecord) error {
		r, err := apply(rec, correct)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("record answer: %w", err)
	}
	if res.Advanced {
		l.log.Info("mastery level advanced",
			"user_id", userID,
			"topic_id", topicID,
			"from", res.Previous,
			"to", res.Level,
		)
	}
	return res, nil
}

// apply mutates rec in place for one answer and returns the outcome.
func apply(rec *store.MasteryRecord, correct bool) (Result, error) {
	level := Level(rec.Level)
	if !level.Valid() {
		return Result{}, fmt.Errorf("record has unknown level %q", rec.Level)
	}

	counts := rec.LevelCounts.Data()
	if counts == nil {
		counts = map[string]int{}
	}

	rec.TotalAnswered++
	if correct {
		rec.TotalCorrect++
		counts[string(level)]++
	}

	res := Result{
		Level:        level,
		Previous:     level,
		CountAtLevel: counts[string(level)],
		Threshold:    level.Threshold(),
		Correct:      correct,
	}

	if correct {
		if next, ok := level.Next(); ok && counts[string(level)] >= level.Threshold() {
			rec.Level = string(next)
			res.Level = next
			res.Advanced = true
			res.CountAtLevel = counts[string(next)]
			res.Threshold = next.Threshold()
		}
	}

	rec.LevelCounts = datatypes.NewJSONType(counts)
	return res, nil
}

// StatusFor returns the mastery view for one (user, topic) pair,
// creating a locked record when none exists yet.
func (l *Ledger) StatusFor(ctx context.Context, userID, topicID uuid.UUID) (Status, error) {
	rec, err := l.repo.GetOrCreate(ctx, userID, topicID, false)
	if err != nil {
		return Status{}, fmt.Errorf("mastery status: %w", err)
	}
	return statusOf(rec), nil
}

// StatusesFor returns mastery views for every topic the user has a
// record on, keyed by topic ID.
func (l *Ledger) StatusesFor(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]Status, error) {
	recs, err := l.repo.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("mastery statuses: %w", err)
	}
	out := make(map[uuid.UUID]Status, len(recs))
	for i := range recs {
		out[recs[i].TopicID] = statusOf(&recs[i])
	}
	return out, nil
}

func statusOf(rec *store.MasteryRecord) Status {
	level := Level(rec.Level)
	counts := rec.LevelCounts.Data()
	return Status{
		TopicID:       rec.TopicID,
		Level:         level,
		CountAtLevel:  counts[string(level)],
		Threshold:     level.Threshold(),
		TotalAnswered: rec.TotalAnswered,
		TotalCorrect:  rec.TotalCorrect,
		Unlocked:      rec.Unlocked,
		Description:   level.Description(),
	}
}
