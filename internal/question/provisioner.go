package question

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/apoorv/socratic/internal/llm"
	"github.com/apoorv/socratic/internal/logger"
)

// Config controls the behavior of the Provisioner.
type Config struct {
	// Timeout bounds each LLM attempt. Sessions must keep moving, so
	// a slow provider loses to the fallback bank.
	Timeout time.Duration

	// Validators run in order on every LLM question; the first
	// failure discards the question.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness.
	Temperature float64
}

// DefaultConfig returns the standard provisioning configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:     4 * time.Second,
		Validators:  []Validator{&StructuralValidator{}},
		MaxTokens:   512,
		Temperature: 0.7,
	}
}

// Provisioner produces the next question for a session: an LLM
// attempt first, the deterministic fallback bank when the attempt
// fails, times out, or repeats already-served content. Next always
// returns a question.
type Provisioner struct {
	provider llm.Provider
	bank     *FallbackBank
	config   Config
	log      *logger.Logger
}

// NewProvisioner creates a Provisioner with the given provider.
func NewProvisioner(provider llm.Provider, cfg Config, log *logger.Logger) *Provisioner {
	return &Provisioner{
		provider: provider,
		bank:     NewFallbackBank(),
		config:   cfg,
		log:      log.With("component", "question"),
	}
}

// quizOutput is the raw LLM response before validation.
type quizOutput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    int      `json:"difficulty"`
}

// Next produces one question for the input. The returned question is
// never nil and its ID is never in in.ExcludeIDs: when generation
// fails the bank serves a fresh variant in some round.
func (p *Provisioner) Next(ctx context.Context, in ProvisionInput) *Question {
	q, err := p.generate(ctx, in)
	if err == nil {
		return q
	}

	p.log.Warn("falling back to question bank",
		"topic", in.TopicName,
		"reason", err.Error(),
	)
	return p.bank.Next(in.TopicID, in.TopicName, in.ExcludeIDs)
}

var errAlreadyServed = errors.New("generated question repeats served content")

func (p *Provisioner) generate(ctx context.Context, in ProvisionInput) (*Question, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, "question-gen")

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(in)},
		},
		Schema:      QuizSchema,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}

	resp, err := p.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var raw quizOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, err
	}

	q := &Question{
		ID:            contentID(raw.Question),
		TopicID:       in.TopicID,
		Prompt:        raw.Question,
		Options:       raw.Options,
		CorrectAnswer: raw.CorrectAnswer,
		Explanation:   raw.Explanation,
		Difficulty:    raw.Difficulty,
		Source:        SourceLLM,
	}

	for _, v := range p.config.Validators {
		if verr := v.Validate(q); verr != nil {
			return nil, verr
		}
	}

	for _, id := range in.ExcludeIDs {
		if id == q.ID {
			return nil, errAlreadyServed
		}
	}
	return q, nil
}

// contentID derives a stable identifier from question text so the
// same generated prompt always maps to the same ID.
func contentID(prompt string) string {
	sum := sha256.Sum256([]byte(normalizeAnswer(prompt)))
	return "llm:" + hex.EncodeToString(sum[:8])
}
