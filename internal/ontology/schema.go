package ontology

import "github.com/apoorv/socratic/internal/llm"

// SubtopicSchema defines the JSON schema for LLM subtopic generation
// responses.
var SubtopicSchema = &llm.Schema{
	Name:        "subtopic-batch",
	Description: "A batch of candidate subtopics under a parent topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subtopics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Concise subtopic name, distinct from every sibling",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "One or two sentences on what the subtopic covers",
						},
					},
					"required":             []any{"name", "description"},
					"additionalProperties": false,
				},
				"minItems":    3,
				"maxItems":    6,
				"description": "Candidate subtopics that partition the parent without overlap",
			},
		},
		"required":             []any{"subtopics"},
		"additionalProperties": false,
	},
}
