package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeLabel lowercases a label and removes all whitespace so that
// "Next  Hearing\nDate" and "next hearing date" compare equal.
func NormalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.TrimSpace(label)
	label = whitespaceRegex.ReplaceAllString(label, "")
	return label
}

// ContainsLabel reports whether text contains label after normalizing both.
func ContainsLabel(text, label string) bool {
	return strings.Contains(NormalizeLabel(text), NormalizeLabel(label))
}

// ClosestMatch returns the candidate most similar to value by Jaro-Winkler
// similarity along with the similarity, it returns "" if there are no candidates.
func ClosestMatch(value string, candidates []string) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		score := matchr.JaroWinkler(NormalizeLabel(value), NormalizeLabel(c), false)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}
