package score

import (
	"fmt"
	"strings"
)

// RemoteNarrative frames model text with attribution and metadata
func RemoteNarrative(text, provider, modelName string) string {
	var b strings.Builder

	b.WriteString("🤖 MODEL ANALYSIS\n\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n🚀 TECHNICAL DETAILS:\n")
	fmt.Fprintf(&b, "• Model: %s\n", modelName)
	fmt.Fprintf(&b, "• Provider: %s\n", provider)
	b.WriteString("• Analysis type: single-pass credibility assessment\n\n")
	b.WriteString("✅ This assessment was produced by a hosted language model.")

	return b.String()
}

// FallbackNarrative explains a heuristic score. Its phrasing depends on the
// score band (>=70, >=50, below) and always states it is not model output.
func FallbackNarrative(confidence int) string {
	var b strings.Builder

	b.WriteString("🎭 FALLBACK MODE (remote model unavailable)\n\n")
	fmt.Fprintf(&b, "CREDIBILITY ASSESSMENT: %d/100 ", confidence)

	switch {
	case confidence >= 70:
		b.WriteString(`(GENERALLY RELIABLE)

✅ PATTERN ASSESSMENT: GOOD CREDIBILITY
• Content structure suggests reliability
• No major misinformation indicators detected
• Language patterns appear professional
• Meets basic credibility standards`)
	case confidence >= 50:
		b.WriteString(`(MODERATE RELIABILITY)

⚠️ PATTERN ASSESSMENT: MIXED SIGNALS
• Some reliability concerns identified
• Content requires additional verification
• Language patterns show potential bias
• Cross-reference recommended`)
	default:
		b.WriteString(`(LOW RELIABILITY)

🚨 PATTERN ASSESSMENT: HIGH RISK
• Multiple misinformation indicators
• Content matches known false claim patterns
• Language shows bias and manipulation
• Likely contains false information`)
	}

	b.WriteString(`

🔍 FALLBACK ANALYSIS DETAILS:
• Keyword-based credibility scoring
• Phrases associated with sensational or conspiratorial framing lower the score
• Hedged language and institutional sourcing raise the score
• Limited to surface-level indicators

📋 LIMITATIONS:
This is local pattern matching, not real model output. Configure a model
credential (llm.api_key or TRUTHLENS_LLM_API_KEY) for a full assessment.

`)
	fmt.Fprintf(&b, "🎯 CONFIDENCE SCORE: %d%% (Pattern-Based Assessment)", confidence)

	return b.String()
}
