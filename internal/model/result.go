package model

import "time"

// AnalysisResult is the canonical output of one credibility analysis
type AnalysisResult struct {
	ID         string    `json:"id"`          // Correlation token for this analysis
	AnalyzedAt time.Time `json:"analyzed_at"` // When the analysis completed
	Confidence int       `json:"confidence"`  // Credibility score (0-100)
	Label      string    `json:"label"`       // Human label for the score band
	Narrative  string    `json:"narrative"`   // Model text or fallback template

	Sources   SourceStats    `json:"sources"`
	FactCheck FactCheckStats `json:"fact_check"`
	Issues    []string       `json:"issues"`

	// SyntheticStats is always true: Sources and FactCheck are derived from
	// Confidence, nothing was actually checked
	SyntheticStats bool `json:"synthetic_stats"`

	UsedRemoteModel bool        `json:"used_remote_model"`
	Source          string      `json:"source"`                    // e.g. "openai/llama-3.1-8b-instant" or "heuristic"
	FallbackReason  string      `json:"fallback_reason,omitempty"` // Why the remote model was not used
	Indicators      []Indicator `json:"indicators,omitempty"`      // Heuristic rules that fired (fallback only)
}

// SourceStats are illustrative source counts synthesized from the score
type SourceStats struct {
	Reliable     int `json:"reliable"`
	Questionable int `json:"questionable"`
	TotalChecked int `json:"total_checked"`
}

// FactCheckStats are illustrative claim counts synthesized from the score
type FactCheckStats struct {
	Verified    int `json:"verified"`
	Conflicting int `json:"conflicting"`
	Unverified  int `json:"unverified"`
}

// Indicator records one keyword rule that contributed to a heuristic score
type Indicator struct {
	Rule   string `json:"rule"`
	Phrase string `json:"phrase"` // First phrase that matched
	Weight int    `json:"weight"` // Signed contribution to the score
}

// Notice returns the short user-facing notice for fallback results
func (r AnalysisResult) Notice() string {
	if r.UsedRemoteModel {
		return ""
	}
	return "Remote model unavailable - using fallback mode"
}

// Badge returns the history badge class for a confidence value
func Badge(confidence int) string {
	switch {
	case confidence >= 70:
		return "high"
	case confidence >= 40:
		return "medium"
	default:
		return "low"
	}
}
