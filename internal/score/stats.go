package score

import (
	"fmt"

	"github.com/ppiankov/truthlens/internal/model"
)

// Jitter supplies bounded randomness for synthesized counts.
// *math/rand/v2.Rand satisfies it.
type Jitter interface {
	IntN(n int) int
}

// Attribution says where a confidence value came from
type Attribution struct {
	Source string // e.g. "openai/llama-3.1-8b-instant" or "local heuristic"
	Remote bool   // true when the score came from a model response
}

// Presentation is the synthesized material shown next to a score.
// Counts are illustrative: they are derived from confidence, not measured.
type Presentation struct {
	Sources   model.SourceStats
	FactCheck model.FactCheckStats
	Issues    []string
}

var tierIssues = map[Tier][]string{
	TierPositive: {
		"✅ Assessment indicates high content credibility",
		"🔍 No major credibility concerns surfaced",
		"📊 Strong reliability indicators detected",
	},
	TierMixed: {
		"⚠️ Moderate credibility concerns detected",
		"🔍 Some claims require additional verification",
		"📊 Mixed reliability signals identified",
	},
	TierNegative: {
		"🔴 Significant credibility issues flagged",
		"⚠️ Multiple reliability concerns detected",
		"🚨 Content requires careful fact-checking",
	},
	TierHighRisk: {
		"🚨 High-risk misinformation patterns detected",
		"❌ Critical credibility failures identified",
		"⚠️ Extreme caution advised: likely false content",
	},
}

// Synthesize derives source counts, fact-check counts and the issue list
// from a confidence value.
//
// Expected reliable count rises with confidence and expected conflicting
// count falls; every count is non-negative.
func Synthesize(confidence int, attr Attribution, jitter Jitter) Presentation {
	c := Clamp(confidence, 0, 100)

	sources := model.SourceStats{
		Reliable:     c*10/100 + 2,
		Questionable: (100-c)*6/100 + 1,
		TotalChecked: 12 + jitter.IntN(5),
	}
	if floor := sources.Reliable + sources.Questionable; sources.TotalChecked < floor {
		sources.TotalChecked = floor
	}

	factCheck := model.FactCheckStats{
		Unverified: 1 + jitter.IntN(2),
	}
	if c > 70 {
		factCheck.Verified = 4 + jitter.IntN(4)
	} else {
		factCheck.Verified = 1 + jitter.IntN(2)
	}
	if c < 40 {
		factCheck.Conflicting = 3 + jitter.IntN(4)
	} else {
		factCheck.Conflicting = jitter.IntN(2)
	}

	return Presentation{
		Sources:   sources,
		FactCheck: factCheck,
		Issues:    Issues(c, attr),
	}
}

// Issues returns the three tier issues followed by the three informational
// ones (attribution, confidence, active mode)
func Issues(confidence int, attr Attribution) []string {
	issues := make([]string, 0, 6)
	issues = append(issues, tierIssues[TierFor(confidence)]...)

	if attr.Remote {
		issues = append(issues,
			fmt.Sprintf("🤖 Analysis powered by %s", attr.Source),
			fmt.Sprintf("🎯 Model confidence level: %d%%", confidence),
			"🚀 Real-time model assessment active",
		)
	} else {
		issues = append(issues,
			fmt.Sprintf("🧮 Analysis by %s (not model output)", attr.Source),
			fmt.Sprintf("🎯 Pattern-based confidence level: %d%%", confidence),
			"🎭 Fallback heuristic mode active",
		)
	}

	return issues
}
