// Package teach generates micro-lessons for the teach-me action: a
// short explanation with a worked example, grounded in the question
// the learner asked about.
package teach

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apoorv/socratic/internal/llm"
	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/mastery"
)

// Lesson is a short LLM-generated teaching unit.
type Lesson struct {
	Title         string `json:"title"`
	Explanation   string `json:"explanation"`
	WorkedExample string `json:"worked_example,omitempty"`
}

// Input carries the question context a lesson is built from.
type Input struct {
	TopicName     string
	Level         mastery.Level
	Prompt        string
	CorrectAnswer string
	Explanation   string
}

// Config controls lesson generation.
type Config struct {
	// Timeout bounds one generation call. Lessons are served inline
	// with the action response, so the budget is tight.
	Timeout time.Duration

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard lesson configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:     6 * time.Second,
		MaxTokens:   768,
		Temperature: 0.7,
	}
}

// Service generates lessons, falling back to the question's stored
// explanation when the provider cannot deliver in time.
type Service struct {
	provider llm.Provider
	config   Config
	log      *logger.Logger
}

// NewService creates a lesson service.
func NewService(provider llm.Provider, cfg Config, log *logger.Logger) *Service {
	return &Service{provider: provider, config: cfg, log: log.With("component", "teach")}
}

type lessonOutput struct {
	Title         string `json:"title"`
	Explanation   string `json:"explanation"`
	WorkedExample string `json:"worked_example"`
}

// Lesson always returns a usable lesson: generated when possible, the
// stored explanation otherwise.
func (s *Service) Lesson(ctx context.Context, in Input) *Lesson {
	lesson, err := s.generate(ctx, in)
	if err == nil {
		return lesson
	}

	s.log.Warn("lesson generation failed, serving stored explanation",
		"topic", in.TopicName,
		"reason", err.Error(),
	)
	return &Lesson{
		Title:       "About this question",
		Explanation: in.Explanation,
	}
}

func (s *Service) generate(ctx context.Context, in Input) (*Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, "teach-me")

	req := llm.Request{
		System: lessonSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildLessonMessage(in)},
		},
		Schema:      LessonSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var raw lessonOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse lesson: %w", err)
	}
	if raw.Explanation == "" {
		return nil, fmt.Errorf("lesson has no explanation")
	}

	return &Lesson{
		Title:         raw.Title,
		Explanation:   raw.Explanation,
		WorkedExample: raw.WorkedExample,
	}, nil
}
