package question

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// fallbackTemplates are the base bank entries. Each topic gets one
// question per template, instantiated with the topic name. Prompts are
// generic on purpose: the bank exists to keep a session moving when
// the LLM is unavailable, not to compete with generated content.
var fallbackTemplates = []struct {
	prompt      string
	options     [4]string
	correct     int
	explanation string
	difficulty  int
}{
	{
		prompt:      "Which of the following best describes the primary focus of %s?",
		options:     [4]string{"Its core concepts and their relationships", "Unrelated historical trivia", "Topics from a different field entirely", "Only memorizing terminology"},
		correct:     0,
		explanation: "Studying %s means understanding its core concepts and how they relate.",
		difficulty:  1,
	},
	{
		prompt:      "When starting to learn %s, which approach is most effective?",
		options:     [4]string{"Building from foundational ideas toward complex ones", "Starting with the hardest open problems", "Skipping definitions entirely", "Avoiding any practice exercises"},
		correct:     0,
		explanation: "Foundational ideas in %s support the more advanced material built on them.",
		difficulty:  1,
	},
	{
		prompt:      "A claim about %s should be accepted when it is:",
		options:     [4]string{"Supported by evidence or sound reasoning", "Stated confidently", "Popular on social media", "Old enough to be traditional"},
		correct:     0,
		explanation: "In %s, as elsewhere, claims stand on evidence and reasoning.",
		difficulty:  2,
	},
	{
		prompt:      "Which habit most helps retention when studying %s?",
		options:     [4]string{"Regular spaced practice with feedback", "A single marathon cram session", "Reading without testing yourself", "Studying only material you already know"},
		correct:     0,
		explanation: "Spaced practice with feedback is how skills in %s become durable.",
		difficulty:  2,
	},
	{
		prompt:      "In %s, a well-posed question is one that:",
		options:     [4]string{"Has clear terms and a determinable answer", "Cannot be answered even in principle", "Mixes several unrelated questions", "Assumes its own conclusion"},
		correct:     0,
		explanation: "Clear terms and a determinable answer make questions in %s tractable.",
		difficulty:  3,
	},
	{
		prompt:      "Which statement about expertise in %s is accurate?",
		options:     [4]string{"It develops through deliberate practice over time", "It is fixed at birth", "It transfers perfectly to all other fields", "It removes the need to check one's work"},
		correct:     0,
		explanation: "Expertise in %s grows through sustained deliberate practice.",
		difficulty:  3,
	},
	{
		prompt:      "When two explanations in %s fit the same facts, the better one is usually:",
		options:     [4]string{"The simpler one with fewer assumptions", "The longer one", "The one using more jargon", "The one proposed most recently"},
		correct:     0,
		explanation: "Simpler explanations with fewer assumptions are preferred in %s.",
		difficulty:  4,
	},
	{
		prompt:      "A common mistake when applying ideas from %s is:",
		options:     [4]string{"Using a method outside the conditions it assumes", "Checking prerequisites before applying a method", "Testing a result against a known case", "Stating assumptions explicitly"},
		correct:     0,
		explanation: "Methods in %s carry assumptions; applying them elsewhere invites error.",
		difficulty:  4,
	},
	{
		prompt:      "To verify your understanding of a concept in %s, the strongest test is to:",
		options:     [4]string{"Explain it accurately and apply it to a new case", "Recognize the term when you see it", "Recall where you first read about it", "Agree with an expert's summary"},
		correct:     0,
		explanation: "Explaining and transferring a concept shows real command of %s.",
		difficulty:  5,
	},
	{
		prompt:      "Which best characterizes how knowledge in %s advances?",
		options:     [4]string{"Ideas are proposed, tested, and refined against evidence", "Settled conclusions never change", "Authority alone decides what is true", "New results are accepted without scrutiny"},
		correct:     0,
		explanation: "Knowledge in %s advances by proposing, testing, and refining ideas.",
		difficulty:  5,
	},
}

// FallbackBank serves deterministic questions for any topic. The bank
// holds len(fallbackTemplates) base questions per topic; once those
// are exhausted it emits difficulty-shifted variants so a session can
// always continue. IDs are stable across processes.
type FallbackBank struct{}

// NewFallbackBank returns the shared deterministic bank.
func NewFallbackBank() *FallbackBank {
	return &FallbackBank{}
}

// Size returns the number of base questions per topic.
func (b *FallbackBank) Size() int {
	return len(fallbackTemplates)
}

// Next returns the first bank question for the topic whose ID is not
// in exclude. Base questions come first; variants follow in rounds.
// The scan always terminates with a question: exclude is finite and
// every round mints fresh IDs, so some round has a free slot.
func (b *FallbackBank) Next(topicID uuid.UUID, topicName string, exclude []string) *Question {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	slug := slugify(topicName)
	// Round 0 is the base bank; each later round shifts difficulty up
	// by one, capped at 10.
	for round := 0; ; round++ {
		for i := range fallbackTemplates {
			id := fallbackID(slug, i, round)
			if _, skip := excluded[id]; skip {
				continue
			}
			return b.build(topicID, topicName, i, round, id)
		}
	}
}

func (b *FallbackBank) build(topicID uuid.UUID, topicName string, idx, round int, id string) *Question {
	t := fallbackTemplates[idx]
	opts := make([]string, 4)
	copy(opts, t.options[:])

	diff := t.difficulty + round
	if diff > 10 {
		diff = 10
	}

	prompt := fmt.Sprintf(t.prompt, topicName)
	if round > 0 {
		prompt = fmt.Sprintf("%s (Consider this at a more advanced stage of study.)", prompt)
	}

	return &Question{
		ID:            id,
		TopicID:       topicID,
		Prompt:        prompt,
		Options:       opts,
		CorrectAnswer: opts[t.correct],
		Explanation:   fmt.Sprintf(t.explanation, topicName),
		Difficulty:    diff,
		Source:        SourceFallback,
	}
}

func fallbackID(slug string, idx, round int) string {
	if round == 0 {
		return fmt.Sprintf("fallback:%s:%d", slug, idx)
	}
	return fmt.Sprintf("fallback:%s:%d:v%d", slug, idx, round)
}

// slugify lowercases a topic name and joins its words with hyphens so
// bank IDs stay readable and stable.
func slugify(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	if len(fields) == 0 {
		return "topic"
	}
	return strings.Join(fields, "-")
}
