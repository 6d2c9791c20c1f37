package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiAliases(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := expandAlias(tt.in, geminiAliases); got != tt.want {
			t.Errorf("expandAlias(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGeminiSchemaTranslation(t *testing.T) {
	schema := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question":       map[string]any{"type": "string"},
			"difficulty":     map[string]any{"type": "integer"},
			"correct_answer": map[string]any{"type": "string", "enum": []any{"a", "b", "c", "d"}},
			"options": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"question", "options"},
	})

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected object type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["question"].Type != genai.TypeString {
		t.Fatalf("question should be a string, got %s", schema.Properties["question"].Type)
	}
	if schema.Properties["difficulty"].Type != genai.TypeInteger {
		t.Fatalf("difficulty should be an integer, got %s", schema.Properties["difficulty"].Type)
	}
	if len(schema.Properties["correct_answer"].Enum) != 4 {
		t.Fatalf("expected 4 enum values, got %d", len(schema.Properties["correct_answer"].Enum))
	}
	opts := schema.Properties["options"]
	if opts.Type != genai.TypeArray || opts.Items.Type != genai.TypeString {
		t.Fatalf("options should be an array of strings, got %s of %v", opts.Type, opts.Items)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestGeminiSchemaUnknownTypeFallsBackToString(t *testing.T) {
	schema := geminiSchema(map[string]any{"type": "null"})
	if schema.Type != genai.TypeString {
		t.Fatalf("expected string fallback, got %s", schema.Type)
	}
}
