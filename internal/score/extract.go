package score

import (
	"regexp"
	"strconv"
)

// DefaultScore is used when a narrative carries no recognisable score
const DefaultScore = 50

var (
	// "Credibility Score: 73/100", "score 80%", "Score:65 "
	labelledScorePattern = regexp.MustCompile(`(?i)(?:credibility score|score)[:\s]*(\d+)(?:/100|%|\s|$)`)

	// any "NN/100" or "NN%"
	bareScorePattern = regexp.MustCompile(`(\d+)(?:/100|%)`)
)

// ExtractScore pulls a 0-100 credibility score out of free-form model text.
// A labelled score wins over a bare one; with neither the result is 50.
func ExtractScore(narrative string) int {
	score := DefaultScore

	if m := labelledScorePattern.FindStringSubmatch(narrative); m != nil {
		score = parseDigits(m[1])
	} else if m := bareScorePattern.FindStringSubmatch(narrative); m != nil {
		score = parseDigits(m[1])
	}

	return Clamp(score, 0, 100)
}

// parseDigits parses a run of ASCII digits; runs too long for an int only
// occur for huge values, which clamp to 100 anyway
func parseDigits(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 100
	}
	return n
}
