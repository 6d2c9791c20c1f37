package question

import (
	"fmt"
	"strings"
)

// Validator checks a provisioned question before it is served.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for error messages and logging.
	Name() string

	// Validate returns nil if the question passes, or a
	// ValidationError describing the failure.
	Validate(q *Question) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks that required fields are present, within
// length limits, and internally consistent.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	if strings.TrimSpace(q.Prompt) == "" {
		return &ValidationError{Validator: v.Name(), Message: "question prompt is empty"}
	}
	if len(q.Prompt) > 800 {
		return &ValidationError{Validator: v.Name(), Message: "question prompt exceeds 800 characters"}
	}
	if len(q.Options) != 4 {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("expected 4 options, got %d", len(q.Options))}
	}
	seen := make(map[string]struct{}, 4)
	for _, opt := range q.Options {
		norm := normalizeAnswer(opt)
		if norm == "" {
			return &ValidationError{Validator: v.Name(), Message: "option is empty"}
		}
		if _, dup := seen[norm]; dup {
			return &ValidationError{Validator: v.Name(), Message: "options contain duplicates"}
		}
		seen[norm] = struct{}{}
	}
	if _, ok := seen[normalizeAnswer(q.CorrectAnswer)]; !ok {
		return &ValidationError{Validator: v.Name(), Message: "correct answer does not match any option"}
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return &ValidationError{Validator: v.Name(), Message: "explanation is empty"}
	}
	return nil
}

// normalizeAnswer prepares answer text for content comparison:
// surrounding whitespace is trimmed and case is folded. Submitted
// answers and stored options go through the same normalization.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether a submitted answer selects the given option,
// comparing by content rather than position.
func Matches(submitted, option string) bool {
	return normalizeAnswer(submitted) == normalizeAnswer(option)
}
