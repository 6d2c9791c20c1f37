package question

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/apoorv/socratic/internal/llm"
	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/mastery"
)

func testInput() ProvisionInput {
	return ProvisionInput{
		TopicID:       uuid.New(),
		TopicName:     "Linear Algebra",
		Level:         mastery.Novice,
		DifficultyMin: 1,
		DifficultyMax: 10,
	}
}

func validRaw(prompt string) json.RawMessage {
	out, _ := json.Marshal(map[string]any{
		"question":       prompt,
		"options":        []string{"A vector", "A scalar", "A matrix", "A tensor"},
		"correct_answer": "A vector",
		"explanation":    "A vector has both magnitude and direction.",
		"difficulty":     3,
	})
	return out
}

func newProvisioner(p llm.Provider) *Provisioner {
	return NewProvisioner(p, DefaultConfig(), logger.NewNop())
}

func TestNextReturnsValidatedLLMQuestion(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validRaw("What has magnitude and direction?")})
	p := newProvisioner(mock)

	q := p.Next(context.Background(), testInput())
	if q == nil {
		t.Fatal("Next returned nil")
	}
	if q.Source != SourceLLM {
		t.Fatalf("source = %s", q.Source)
	}
	if q.CorrectAnswer != "A vector" {
		t.Fatalf("correct = %q", q.CorrectAnswer)
	}
	if q.ID == "" {
		t.Fatal("LLM question must carry a content ID")
	}
}

func TestNextFallsBackOnProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	p := newProvisioner(mock)

	q := p.Next(context.Background(), testInput())
	if q == nil {
		t.Fatal("Next returned nil")
	}
	if q.Source != SourceFallback {
		t.Fatalf("source = %s", q.Source)
	}
}

func TestNextFallsBackOnStructuralFailure(t *testing.T) {
	bad, _ := json.Marshal(map[string]any{
		"question":       "Pick one",
		"options":        []string{"a", "b", "c", "d"},
		"correct_answer": "e",
		"explanation":    "nope",
		"difficulty":     3,
	})
	mock := llm.NewMockProvider(llm.MockResponse{Content: bad})
	p := newProvisioner(mock)

	q := p.Next(context.Background(), testInput())
	if q.Source != SourceFallback {
		t.Fatalf("source = %s", q.Source)
	}
}

func TestNextTimeoutIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	p := NewProvisioner(slowProvider{}, cfg, logger.NewNop())

	start := time.Now()
	q := p.Next(context.Background(), testInput())
	elapsed := time.Since(start)

	if q == nil || q.Source != SourceFallback {
		t.Fatalf("expected fallback, got %+v", q)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("Next took %v, timeout not applied", elapsed)
	}
}

// slowProvider blocks until the context is canceled.
type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestNextNeverRepeatsExcludedIDs(t *testing.T) {
	prompt := "What has magnitude and direction?"
	mock := llm.NewMockProvider(llm.MockResponse{Content: validRaw(prompt)})
	p := newProvisioner(mock)

	in := testInput()
	in.ExcludeIDs = []string{contentID(prompt)}

	q := p.Next(context.Background(), in)
	if q.Source != SourceFallback {
		t.Fatalf("repeated LLM content must fall back, got source %s", q.Source)
	}
	for _, id := range in.ExcludeIDs {
		if q.ID == id {
			t.Fatalf("returned excluded ID %s", id)
		}
	}
}

func TestFallbackBankExhaustionServesVariants(t *testing.T) {
	bank := NewFallbackBank()
	topicID := uuid.New()

	var served []string
	seen := make(map[string]struct{})
	for i := 0; i < 2*bank.Size(); i++ {
		q := bank.Next(topicID, "Linear Algebra", served)
		if q == nil {
			t.Fatalf("bank returned nil at %d", i)
		}
		if _, dup := seen[q.ID]; dup {
			t.Fatalf("bank repeated ID %s despite exclusion", q.ID)
		}
		seen[q.ID] = struct{}{}
		served = append(served, q.ID)

		if i >= bank.Size() && q.Source != SourceFallback {
			t.Fatalf("variant source = %s", q.Source)
		}
	}

	// Variants shift difficulty up relative to their base question.
	base := bank.Next(topicID, "Linear Algebra", nil)
	variant := bank.Next(topicID, "Linear Algebra", served[:bank.Size()])
	if variant.Difficulty <= base.Difficulty {
		t.Fatalf("variant difficulty %d not above base %d", variant.Difficulty, base.Difficulty)
	}
}

func TestFallbackBankNeverRunsDry(t *testing.T) {
	bank := NewFallbackBank()
	prov := newProvisioner(llm.NewMockProvider())
	in := testInput()

	// Twelve full rounds of the bank, well past the base questions and
	// the first variant generations.
	var served []string
	seen := make(map[string]struct{})
	for i := 0; i < 12*bank.Size()+5; i++ {
		q := bank.Next(in.TopicID, in.TopicName, served)
		if q == nil {
			t.Fatalf("bank returned nil at serving %d", i)
		}
		if _, dup := seen[q.ID]; dup {
			t.Fatalf("bank repeated ID %s at serving %d", q.ID, i)
		}
		seen[q.ID] = struct{}{}
		served = append(served, q.ID)
	}

	// The provisioner inherits the guarantee with the provider down.
	in.ExcludeIDs = served
	q := prov.Next(context.Background(), in)
	if q == nil {
		t.Fatal("provisioner returned nil with exhausted exclusions")
	}
	if _, dup := seen[q.ID]; dup {
		t.Fatalf("provisioner repeated excluded ID %s", q.ID)
	}
}

func TestFallbackIDsAreStable(t *testing.T) {
	bank := NewFallbackBank()
	topicID := uuid.New()

	a := bank.Next(topicID, "Graph Theory", nil)
	b := bank.Next(uuid.New(), "Graph Theory", nil)
	if a.ID != b.ID {
		t.Fatalf("IDs differ for same content: %s vs %s", a.ID, b.ID)
	}
	if a.ID != "fallback:graph-theory:0" {
		t.Fatalf("unexpected ID format: %s", a.ID)
	}
}

func TestStructuralValidatorCatchesDuplicateOptions(t *testing.T) {
	v := &StructuralValidator{}
	q := &Question{
		Prompt:        "Pick one",
		Options:       []string{"same", "Same ", "other", "more"},
		CorrectAnswer: "other",
		Explanation:   "because",
	}
	if verr := v.Validate(q); verr == nil {
		t.Fatal("duplicate options must fail validation")
	}
}

func TestMatchesComparesByContent(t *testing.T) {
	if !Matches("  A Vector ", "a vector") {
		t.Fatal("trimmed case-folded answers must match")
	}
	if Matches("a scalar", "a vector") {
		t.Fatal("different answers must not match")
	}
}
