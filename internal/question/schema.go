package question

import "github.com/apoorv/socratic/internal/llm"

// QuizSchema defines the JSON schema for LLM quiz question responses.
var QuizSchema = &llm.Schema{
	Name:        "quiz-question",
	Description: "A single multiple-choice quiz question with answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question prompt shown to the learner, in plain text",
			},
			"options": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"minItems":    4,
				"maxItems":    4,
				"description": "Exactly 4 answer options, exactly one of which is correct",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "The text of the correct option, matching one entry in options exactly",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "A short explanation of why the correct answer is right",
			},
			"difficulty": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     10,
				"description": "Estimated difficulty from 1 (easy) to 10 (hard)",
			},
		},
		"required":             []any{"question", "options", "correct_answer", "explanation", "difficulty"},
		"additionalProperties": false,
	},
}
