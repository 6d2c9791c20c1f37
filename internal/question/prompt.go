package question

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a tutor writing multiple-choice quiz questions for an adaptive learning system.

Rules:
- Generate a single question on the given topic at the requested difficulty.
- Use plain text. No LaTeX, no markdown formatting.
- Provide exactly 4 options where exactly one is correct. Distractors should reflect plausible misconceptions, not random noise.
- The correct_answer field must match one of the options character for character.
- The explanation should briefly say why the correct answer is right.
- Calibrate to the learner's mastery level: novice questions test recall and recognition, higher levels test application and edge cases.
- Do not repeat any question from the "already asked" list.`

// levelGuidance maps mastery levels to a difficulty instruction.
var levelGuidance = map[string]string{
	"novice":     "Ask about core definitions and simple recognition.",
	"competent":  "Ask about standard applications of the main ideas.",
	"proficient": "Ask about multi-step reasoning and common pitfalls.",
	"expert":     "Ask about subtle distinctions and unusual cases.",
	"master":     "Ask about deep connections and expert-level nuance.",
}

// maxPriorPrompts bounds how many prior prompts go into the request.
const maxPriorPrompts = 8

// buildUserMessage constructs the user message for one provisioning call.
func buildUserMessage(in ProvisionInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", in.TopicName)
	if in.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", in.Description)
	}
	fmt.Fprintf(&b, "Learner level: %s\n", in.Level)
	if g, ok := levelGuidance[string(in.Level)]; ok {
		fmt.Fprintf(&b, "Guidance: %s\n", g)
	}
	fmt.Fprintf(&b, "Difficulty range: %d-%d\n", in.DifficultyMin, in.DifficultyMax)

	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(formatPrior(in.PriorPrompts, maxPriorPrompts))

	return b.String()
}

// formatPrior lists the most recent prior prompts, or "None".
func formatPrior(prompts []string, max int) string {
	if len(prompts) == 0 {
		return "None"
	}
	if max > 0 && len(prompts) > max {
		prompts = prompts[len(prompts)-max:]
	}
	var b strings.Builder
	for i, p := range prompts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}
