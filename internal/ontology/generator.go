// Package ontology grows the topic tree: when a learner crosses a
// mastery threshold on a topic, subtopics are generated, checked for
// mutual exclusivity, and unlocked for that learner. The tree is
// shared; topics generated for one learner are reused for everyone
// who reaches them later.
package ontology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apoorv/socratic/internal/llm"
	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/mastery"
	"github.com/apoorv/socratic/internal/mece"
	"github.com/apoorv/socratic/internal/store"
)

// Config controls expansion behavior.
type Config struct {
	// Timeout bounds one LLM attempt. Expansion runs off the request
	// path, so this is looser than the question budget.
	Timeout time.Duration

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness.
	Temperature float64
}

// DefaultConfig returns the standard expansion configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:     20 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.8,
	}
}

// Generator expands the topic tree on threshold crossings.
type Generator struct {
	provider  llm.Provider
	st        *store.Store
	validator *mece.Validator
	tracker   *Tracker
	cache     *TreeCache
	config    Config
	log       *logger.Logger
}

// NewGenerator wires an expansion generator.
func NewGenerator(provider llm.Provider, st *store.Store, cache *TreeCache, cfg Config, log *logger.Logger) *Generator {
	return &Generator{
		provider:  provider,
		st:        st,
		validator: mece.New(),
		tracker:   NewTracker(),
		cache:     cache,
		config:    cfg,
		log:       log.With("component", "ontology"),
	}
}

// Tracker exposes in-flight state for callers that want to report or
// await pending expansions.
func (g *Generator) Tracker() *Tracker {
	return g.tracker
}

// MaybeExpand is called after a mastery level advance. If subtopics of
// the topic already exist they are unlocked for the user; otherwise at
// most one caller wins the right to generate them. The returned slice
// holds the topics now newly available to the user; it is empty when
// another caller is generating or when generation soft-fails.
func (g *Generator) MaybeExpand(ctx context.Context, userID, topicID uuid.UUID, level mastery.Level) ([]store.Topic, error) {
	children, err := g.st.Topics().ChildrenOf(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	if len(children) > 0 {
		if err := g.st.UnlockExisting(ctx, userID, topicID, string(level), children); err != nil {
			return nil, fmt.Errorf("unlock existing subtopics: %w", err)
		}
		return children, nil
	}

	acquired, err := g.st.Mastery().TryAcquireGeneration(ctx, userID, topicID)
	if err != nil {
		return nil, fmt.Errorf("acquire generation: %w", err)
	}
	if !acquired {
		g.log.Debug("generation already triggered", "user_id", userID, "topic_id", topicID)
		return nil, nil
	}

	done := g.tracker.Begin(userID, topicID)
	defer done()

	parent, err := g.st.Topics().Get(ctx, topicID)
	if err != nil {
		g.release(ctx, userID, topicID)
		return nil, fmt.Errorf("load parent topic: %w", err)
	}

	candidates, err := g.generate(ctx, parent)
	if err != nil {
		// Provider trouble is not the learner's problem: release the
		// flag so a later crossing retries, and keep the session going.
		g.release(ctx, userID, topicID)
		g.log.Warn("expansion soft-failed",
			"topic", parent.Name,
			"reason", err.Error(),
		)
		return nil, nil
	}

	outcome := g.validator.Validate(parent.Name, topicNames(children), candidates)
	for _, rej := range outcome.Rejected {
		g.log.Debug("subtopic rejected", "parent", parent.Name, "name", rej.Name, "reason", rej.Reason)
	}
	if len(outcome.Accepted) == 0 {
		g.log.Warn("expansion produced no acceptable subtopics", "topic", parent.Name)
		return nil, nil
	}

	topics := make([]store.Topic, len(outcome.Accepted))
	for i, c := range outcome.Accepted {
		topics[i] = store.Topic{
			Name:          c.Name,
			Description:   c.Description,
			DifficultyMin: parent.DifficultyMin,
			DifficultyMax: parent.DifficultyMax,
		}
	}

	exp := store.Expansion{
		UserID:       userID,
		ParentID:     topicID,
		TriggerLevel: string(level),
		Topics:       topics,
	}
	if err := g.st.CommitExpansion(ctx, exp); err != nil {
		g.release(ctx, userID, topicID)
		return nil, fmt.Errorf("commit expansion: %w", err)
	}
	g.cache.Invalidate()

	g.log.Info("topic tree expanded",
		"parent", parent.Name,
		"new_topics", len(topics),
		"rejected", len(outcome.Rejected),
	)
	return exp.Topics, nil
}

func topicNames(topics []store.Topic) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Name
	}
	return out
}

// subtopicBatch is the raw LLM response shape.
type subtopicBatch struct {
	Subtopics []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"subtopics"`
}

// generate asks the LLM for candidate subtopics. A malformed response
// gets one retry with a reduced prompt before giving up.
func (g *Generator) generate(ctx context.Context, parent *store.Topic) ([]mece.Candidate, error) {
	existing, err := g.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	names := make([]string, len(existing))
	for i := range existing {
		names[i] = existing[i].Name
	}

	userMsg := buildUserMessage(parent.Name, parent.Description, names)

	candidates, err := g.request(ctx, systemPrompt, userMsg)
	if err == nil {
		return candidates, nil
	}

	var invalid *llm.ErrInvalidResponse
	if !errors.As(err, &invalid) {
		return nil, err
	}

	g.log.Debug("retrying expansion with reduced prompt", "topic", parent.Name)
	return g.request(ctx, reducedSystemPrompt, userMsg)
}

func (g *Generator) request(ctx context.Context, system, userMsg string) ([]mece.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, "ontology-expand")

	req := llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      SubtopicSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var batch subtopicBatch
	if err := json.Unmarshal(resp.Content, &batch); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	out := make([]mece.Candidate, len(batch.Subtopics))
	for i, s := range batch.Subtopics {
		out[i] = mece.Candidate{Name: s.Name, Description: s.Description}
	}
	return out, nil
}

func (g *Generator) release(ctx context.Context, userID, topicID uuid.UUID) {
	if err := g.st.Mastery().ReleaseGeneration(ctx, userID, topicID); err != nil {
		g.log.Error("release generation flag", "user_id", userID, "topic_id", topicID, "error", err)
	}
}
