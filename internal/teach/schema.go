package teach

import "github.com/apoorv/socratic/internal/llm"

// LessonSchema defines the JSON schema for lesson responses.
var LessonSchema = &llm.Schema{
	Name:        "micro-lesson",
	Description: "A short teaching unit for one quiz question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short lesson title naming the concept",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "A few sentences teaching the concept, ending with the answer to the original question",
			},
			"worked_example": map[string]any{
				"type":        "string",
				"description": "A brief example applying the concept, different from the quiz question",
			},
		},
		"required":             []any{"title", "explanation", "worked_example"},
		"additionalProperties": false,
	},
}
