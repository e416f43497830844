package score

import (
	"strings"

	"github.com/ppiankov/truthlens/internal/model"
)

// Heuristic bounds and baseline. The bounds are deliberately narrower than
// the 0-100 score range: a keyword scan never claims certainty either way.
const (
	HeuristicBaseline = 70
	HeuristicFloor    = 5
	HeuristicCeiling  = 95
)

// keywordRule adds weight once when any phrase in anyOf is present and
// every phrase in allOf is present
type keywordRule struct {
	name   string
	anyOf  []string
	allOf  []string
	weight int
}

var heuristicRules = []keywordRule{
	// Sensational or conspiratorial framing
	{name: "absolute-certainty", anyOf: []string{"100%", "never fails"}, weight: -25},
	{name: "miracle-claim", anyOf: []string{"cure all", "cure-all", "miracle"}, weight: -30},
	{name: "suppressed-knowledge", anyOf: []string{"they don't want you to know", "they don’t want you to know"}, weight: -35},
	{name: "government-secret", allOf: []string{"secret", "government"}, weight: -20},
	{name: "conspiracy", anyOf: []string{"big pharma", "conspiracy"}, weight: -25},

	// Hedging and institutional sourcing
	{name: "peer-review", anyOf: []string{"peer reviewed", "peer-reviewed", "clinical trial"}, weight: 20},
	{name: "academic-source", anyOf: []string{"university", "professor"}, weight: 15},
	{name: "attribution", anyOf: []string{"according to", "research shows"}, weight: 10},
	{name: "wire-service", anyOf: []string{"reuters", "associated press"}, weight: 25},
	{name: "hedging", anyOf: []string{"may", "suggests", "indicates"}, weight: 10},
}

// Estimate is a heuristic credibility score with the rules that produced it
type Estimate struct {
	Score      int
	Indicators []model.Indicator
}

// EstimateCredibility scores content by keyword scan alone. It is pure,
// case-insensitive and never fails; the result is within [5,95].
func EstimateCredibility(content string) int {
	return EstimateWithIndicators(content).Score
}

// EstimateWithIndicators is EstimateCredibility plus the fired rules, in
// rule order
func EstimateWithIndicators(content string) Estimate {
	lower := strings.ToLower(content)
	score := HeuristicBaseline
	var indicators []model.Indicator

	for _, rule := range heuristicRules {
		phrase, ok := rule.match(lower)
		if !ok {
			continue
		}
		score += rule.weight
		indicators = append(indicators, model.Indicator{
			Rule:   rule.name,
			Phrase: phrase,
			Weight: rule.weight,
		})
	}

	return Estimate{
		Score:      Clamp(score, HeuristicFloor, HeuristicCeiling),
		Indicators: indicators,
	}
}

// match reports whether the rule fires on lowercased text and which phrase
// triggered it
func (r keywordRule) match(lower string) (string, bool) {
	for _, phrase := range r.allOf {
		if !strings.Contains(lower, phrase) {
			return "", false
		}
	}
	if len(r.anyOf) == 0 {
		return strings.Join(r.allOf, " + "), len(r.allOf) > 0
	}
	for _, phrase := range r.anyOf {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
