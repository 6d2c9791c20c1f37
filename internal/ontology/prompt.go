package ontology

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a curriculum designer expanding a topic tree for an adaptive learning system.

Rules:
- Propose subtopics that together cover the natural next layer of the parent topic.
- Subtopics must be mutually exclusive: no two may cover the same ground.
- Each name must stand on its own. Avoid restating the parent name with filler words like "Fundamentals" or "Advanced".
- Do not propose any topic already present in the tree.
- Keep names concise, two to five words.
- Each description explains in one or two sentences what the subtopic covers and why it follows from the parent.`

// reducedSystemPrompt is used on the retry after a malformed response.
// It restates only the output contract.
const reducedSystemPrompt = `Propose subtopics of the given topic as JSON. Return an object with a "subtopics" array of {"name", "description"} objects. Names must be distinct, non-overlapping, and must not repeat the parent or any existing topic.`

// buildUserMessage constructs the request body for one expansion.
func buildUserMessage(parentName, parentDescription string, existing []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Parent topic: %s\n", parentName)
	if parentDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", parentDescription)
	}

	b.WriteString("\nTopics already in the tree:\n")
	if len(existing) == 0 {
		b.WriteString("None")
	} else {
		for i, name := range existing {
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
