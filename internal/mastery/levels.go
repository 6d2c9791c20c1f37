package mastery

// Level represents a learner's position on a topic's mastery ladder.
type Level string

const (
	Novice     Level = "novice"
	Competent  Level = "competent"
	Proficient Level = "proficient"
	Expert     Level = "expert"
	Master     Level = "master"
)

// order lists levels from lowest to highest.
var order = []Level{Novice, Competent, Proficient, Expert, Master}

// thresholds maps each level to the number of correct answers required
// at that level before advancing to the next. Master is terminal.
var thresholds = map[Level]int{
	Novice:     4,
	Competent:  12,
	Proficient: 15,
	Expert:     20,
	Master:     0,
}

// descriptions give a short learner-facing summary per level.
var descriptions = map[Level]string{
	Novice:     "Getting familiar with the basics",
	Competent:  "Comfortable with core ideas",
	Proficient: "Applying concepts reliably",
	Expert:     "Handling hard cases with ease",
	Master:     "Full command of the topic",
}

// Valid reports whether l is a recognized level.
func (l Level) Valid() bool {
	_, ok := thresholds[l]
	return ok
}

// Index returns the level's position on the ladder, or -1 when
// unrecognized.
func (l Level) Index() int {
	for i, lv := range order {
		if lv == l {
			return i
		}
	}
	return -1
}

// Next returns the level above l and true, or l and false when l is
// terminal or unrecognized.
func (l Level) Next() (Level, bool) {
	i := l.Index()
	if i < 0 || i == len(order)-1 {
		return l, false
	}
	return order[i+1], true
}

// Threshold returns the correct-answer count needed to advance out of
// l. Zero means terminal.
func (l Level) Threshold() int {
	return thresholds[l]
}

// Description returns the learner-facing summary for l.
func (l Level) Description() string {
	return descriptions[l]
}

// Levels returns the ladder from lowest to highest.
func Levels() []Level {
	out := make([]Level, len(order))
	copy(out, order)
	return out
}
