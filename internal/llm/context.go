package llm

import "context"

type purposeKey struct{}

// WithPurpose tags the context with the caller's intent ("question-gen",
// "ontology-expand", "teach-me"). The logging decorator picks it up.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose tag, or "unknown" for untagged contexts.
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok {
		return p
	}
	return "unknown"
}
