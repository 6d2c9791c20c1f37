// Package mece filters candidate subtopic names so that accepted
// siblings are mutually exclusive: no two accepted names may cover the
// same conceptual ground once generic qualifier words are ignored.
package mece

import (
	"fmt"
	"strings"
)

// Candidate is one proposed subtopic name under a parent topic.
type Candidate struct {
	Name        string
	Description string
}

// Rejection explains why a candidate was not accepted.
type Rejection struct {
	Name   string
	Reason string
}

// Outcome is the result of validating one candidate batch.
type Outcome struct {
	Accepted []Candidate
	Rejected []Rejection
}

// stopWords are grammatical tokens that carry no topical meaning.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "into": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "with": {},
}

// qualifierWords are framing tokens that appear in topic names without
// distinguishing content ("Advanced X" and "X Fundamentals" both cover
// X). They are ignored when comparing candidates but kept when a name
// would otherwise reduce to nothing.
// Entries are in singular form to match tokenize output.
var qualifierWords = map[string]struct{}{
	"advanced": {}, "application": {}, "applied": {}, "basic": {},
	"concept": {}, "core": {}, "essential": {}, "foundation": {},
	"fundamental": {}, "intermediate": {}, "introduction": {},
	"introductory": {}, "method": {}, "modern": {}, "practical": {},
	"principle": {}, "technique": {}, "theory": {},
}

// Validator checks batches of candidate subtopics against a parent.
type Validator struct {
	// jaccardLimit is the token-overlap ratio above which two
	// candidates are considered to cover the same ground.
	jaccardLimit float64
}

// New returns a Validator with the standard overlap limit.
func New() *Validator {
	return &Validator{jaccardLimit: 0.6}
}

// Validate filters candidates in input order: a candidate is accepted
// when it is non-empty after normalization, not a duplicate, and not
// in conflict with an existing sibling or any already-accepted
// candidate. Input order makes the result deterministic for a given
// batch. An empty accepted set is a valid outcome.
func (v *Validator) Validate(parentName string, siblings []string, candidates []Candidate) Outcome {
	parentTokens := tokenSet(parentName, nil)

	siblingTokens := make([]map[string]struct{}, len(siblings))
	for i, s := range siblings {
		siblingTokens[i] = tokenSet(s, parentTokens)
	}

	var out Outcome
	accepted := make([]map[string]struct{}, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates)+len(siblings))
	for _, s := range siblings {
		seen[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			out.Rejected = append(out.Rejected, Rejection{Name: c.Name, Reason: "empty name"})
			continue
		}

		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			out.Rejected = append(out.Rejected, Rejection{Name: name, Reason: "duplicate of an existing sibling or earlier candidate"})
			continue
		}
		seen[key] = struct{}{}

		tokens := tokenSet(name, parentTokens)
		if len(tokens) == 0 {
			out.Rejected = append(out.Rejected, Rejection{Name: name, Reason: "name adds nothing beyond the parent topic"})
			continue
		}

		conflict := ""
		for i, sib := range siblingTokens {
			if len(sib) == 0 {
				continue
			}
			if v.overlaps(tokens, sib) {
				conflict = siblings[i]
				break
			}
		}
		if conflict == "" {
			for i, prev := range accepted {
				if v.overlaps(tokens, prev) {
					conflict = out.Accepted[i].Name
					break
				}
			}
		}
		if conflict != "" {
			out.Rejected = append(out.Rejected, Rejection{Name: name, Reason: fmt.Sprintf("overlaps sibling %q", conflict)})
			continue
		}

		c.Name = name
		out.Accepted = append(out.Accepted, c)
		accepted = append(accepted, tokens)
	}
	return out
}

// tokenSet normalizes a name to its distinguishing tokens: lowercased,
// singularized, with stop words and the parent's own tokens removed.
// Qualifier words are dropped too, with two exceptions around names
// that would otherwise vanish: a name that repeats the parent plus
// qualifiers ("Chemistry Fundamentals" under "Chemistry") stays empty
// and gets rejected, while a bare qualifier name with no parent
// overlap ("Theory" under "Probability") keeps its tokens so siblings
// like "Theory" and "Applications" can coexist.
func tokenSet(name string, parent map[string]struct{}) map[string]struct{} {
	raw := tokenize(name)

	parentOverlap := false
	base := make(map[string]struct{}, len(raw))
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if parent != nil {
			if _, p := parent[tok]; p {
				parentOverlap = true
				continue
			}
		}
		base[tok] = struct{}{}
	}

	stripped := make(map[string]struct{}, len(base))
	for tok := range base {
		if _, q := qualifierWords[tok]; q {
			continue
		}
		stripped[tok] = struct{}{}
	}
	if len(stripped) > 0 {
		return stripped
	}
	if parentOverlap {
		return stripped
	}
	return base
}

func tokenize(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, singular(f))
	}
	return out
}

// singular trims plural suffixes so "network"/"networks" and
// "matrix"/"matrices" compare equal. Crude stemming is enough here;
// the comparison is between sibling names, not free text.
func singular(tok string) string {
	switch {
	case strings.HasSuffix(tok, "ices") && len(tok) > 5:
		return tok[:len(tok)-4] + "ix"
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "sses"):
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && len(tok) > 3:
		return tok[:len(tok)-1]
	}
	return tok
}

// overlaps reports whether two token sets cover the same ground:
// either one contains the other, or their Jaccard similarity exceeds
// the limit.
func (v *Validator) overlaps(a, b map[string]struct{}) bool {
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	if inter == len(a) || inter == len(b) {
		return true
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return true
	}
	return float64(inter)/float64(union) > v.jaccardLimit
}
