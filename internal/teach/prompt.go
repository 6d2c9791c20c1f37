package teach

import (
	"fmt"
	"strings"
)

const lessonSystemPrompt = `You are a tutor writing a short lesson for a learner who asked to be taught instead of answering a quiz question.

Rules:
- Teach the concept the question tests, not just the answer.
- Use plain text. No LaTeX, no markdown formatting.
- Keep the explanation to a few sentences, calibrated to the learner's level.
- Include a short worked example that applies the concept, distinct from the quiz question itself.
- End the explanation by stating the correct answer to the original question and why.`

func buildLessonMessage(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", in.TopicName)
	fmt.Fprintf(&b, "Learner level: %s\n", in.Level)
	fmt.Fprintf(&b, "Question: %s\n", in.Prompt)
	fmt.Fprintf(&b, "Correct answer: %s\n", in.CorrectAnswer)
	if in.Explanation != "" {
		fmt.Fprintf(&b, "Existing short explanation: %s\n", in.Explanation)
	}

	return strings.TrimRight(b.String(), "\n")
}
