package quiz

import "math/rand/v2"

// shuffleOptions returns a uniformly shuffled copy of the options.
// The canonical order stays in storage; only the presented order
// varies, and correctness is judged by answer content afterwards.
func shuffleOptions(options []string) []string {
	out := make([]string, len(options))
	copy(out, options)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
