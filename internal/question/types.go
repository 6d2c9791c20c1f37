package question

import (
	"github.com/google/uuid"

	"github.com/apoorv/socratic/internal/mastery"
)

// Source identifies where a question came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Question is a multiple-choice item ready to serve.
type Question struct {
	// ID is a stable content identifier used for repeat prevention.
	// LLM questions hash their prompt; fallback questions carry bank
	// positions, so the same content always yields the same ID.
	ID string

	TopicID uuid.UUID

	// Prompt is the question text shown to the learner.
	Prompt string

	// Options holds exactly 4 choices in canonical order. Presentation
	// order is shuffled by the caller at serving time.
	Options []string

	// CorrectAnswer is the text of the correct option. Correctness is
	// always judged by content, never by position.
	CorrectAnswer string

	// Explanation is a short rationale shown after the learner acts.
	Explanation string

	// Difficulty is a 1-10 estimate aligned with the topic's range.
	Difficulty int

	Source Source
}

// ProvisionInput carries everything needed to produce the next question.
type ProvisionInput struct {
	TopicID     uuid.UUID
	TopicName   string
	Description string

	// Level tunes prompt difficulty to the learner's current mastery.
	Level mastery.Level

	// DifficultyMin and DifficultyMax bound the requested difficulty.
	DifficultyMin int
	DifficultyMax int

	// ExcludeIDs lists question IDs already served in this session.
	// The provisioner never returns a question whose ID is listed.
	ExcludeIDs []string

	// PriorPrompts holds prompts already asked, for prompt-level
	// deduplication in the LLM request.
	PriorPrompts []string
}
