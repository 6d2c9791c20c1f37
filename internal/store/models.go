package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User is a learner account. Registration and authentication live
// outside this service; the row exists so foreign keys have an owner.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Username  string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// Topic is a node in the shared subject tree. Topics are immutable
// once created; the tree only grows. ParentID is nil for root topics.
type Topic struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name          string     `gorm:"not null;uniqueIndex:idx_topic_parent_name,priority:2"`
	Description   string     `gorm:"type:text"`
	ParentID      *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_topic_parent_name,priority:1"`
	DifficultyMin int        `gorm:"default:1"`
	DifficultyMax int        `gorm:"default:10"`
	CreatedAt     time.Time
}

// MasteryRecord tracks one user's progress on one topic. The
// (user, topic) pair is unique. LevelCounts maps each mastery level
// name to the number of correct answers accumulated while at that
// level; counts never decrease.
type MasteryRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mastery_user_topic"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mastery_user_topic"`

	Level       string                             `gorm:"not null;default:novice"`
	LevelCounts datatypes.JSONType[map[string]int] `gorm:"not null"`

	TotalAnswered int `gorm:"default:0"`
	TotalCorrect  int `gorm:"default:0"`

	Unlocked   bool `gorm:"default:false"`
	UnlockedAt *time.Time

	// GenerationTriggered gates ontology expansion: set exactly once
	// per record via a conditional update so concurrent threshold
	// crossings produce at most one generation attempt.
	GenerationTriggered bool `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuizSession is one practice run. TopicID is nil for adaptive
// (mixed-topic) sessions.
type QuizSession struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	TopicID        *uuid.UUID `gorm:"type:uuid"`
	StartedAt      time.Time
	EndedAt        *time.Time
	LastActivityAt time.Time
	TotalQuestions int `gorm:"default:0"`
	TotalCorrect   int `gorm:"default:0"`
}

// ServedQuestion is one question served within a session, in serving
// order. Options holds the canonical option order; presentation order
// is shuffled per serving and never persisted. QuestionID is the
// stable content identifier used for repeat prevention.
type ServedQuestion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_served_session_seq,priority:1"`
	Sequence   int       `gorm:"not null;uniqueIndex:idx_served_session_seq,priority:2"`
	TopicID    uuid.UUID `gorm:"type:uuid;not null"`
	QuestionID string    `gorm:"not null"`

	Prompt        string                       `gorm:"type:text;not null"`
	Options       datatypes.JSONType[[]string] `gorm:"not null"`
	CorrectAnswer string                       `gorm:"type:text;not null"`
	Explanation   string                       `gorm:"type:text"`
	Difficulty    int
	Source        string `gorm:"not null"` // "llm" or "fallback"

	// Action is empty until the learner acts: "answer", "skip", "teach_me".
	Action         string
	SubmittedValue string
	IsCorrect      *bool
	InterestSignal float64 `gorm:"default:0"`

	ServedAt   time.Time
	AnsweredAt *time.Time
}

// UnlockEvent is the append-only audit record of a topic becoming
// available to a user. The (user, topic) unique index makes unlock
// idempotent: a duplicate generation attempt cannot record the same
// unlock twice.
type UnlockEvent struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_unlock_user_topic"`
	TopicID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_unlock_user_topic"`
	ParentTopicID *uuid.UUID `gorm:"type:uuid"`
	TriggerLevel  string     `gorm:"not null"`
	CreatedAt     time.Time
}
