package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured content. The ontology generator asks it
// for candidate child topics, the question provisioner for quiz
// questions, the teach service for micro-lessons. Implementations wrap
// a hosted model API; decorators add retry and logging.
type Provider interface {
	// Generate runs one completion. When req.Schema is set the provider
	// uses its native structured-output mechanism and the returned
	// Content is schema-validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID reports the concrete model this provider targets.
	ModelID() string
}

// Request is a single generation request. All calls in this codebase
// are single-turn: one system prompt plus one user message.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, constrains the output to conforming JSON.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]; zero means deterministic.
	Temperature float64
}

// Message is one turn of conversation input.
type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names and describes the JSON shape expected back from the
// model. Name doubles as the structured-output identifier on providers
// that want one; keep it kebab-case ("quiz-question", "subtopic-batch").
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the provider's answer to one Request.
type Response struct {
	// Content is validated JSON when the request carried a Schema,
	// otherwise the raw text.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request, which may
	// differ from the configured alias.
	Model string

	// StopReason is normalized across providers: "end" or "max_tokens".
	StopReason string
}

// Usage reports token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
