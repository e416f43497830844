package score

// Tier is a confidence band driving issue lists and phrasing
type Tier int

const (
	TierHighRisk Tier = iota // [0,40)
	TierNegative             // [40,60)
	TierMixed                // [60,80)
	TierPositive             // [80,100]
)

func (t Tier) String() string {
	switch t {
	case TierPositive:
		return "positive"
	case TierMixed:
		return "mixed"
	case TierNegative:
		return "negative"
	default:
		return "high-risk"
	}
}

// TierFor maps a confidence value to its tier. Lower bounds are inclusive.
func TierFor(confidence int) Tier {
	switch {
	case confidence >= 80:
		return TierPositive
	case confidence >= 60:
		return TierMixed
	case confidence >= 40:
		return TierNegative
	default:
		return TierHighRisk
	}
}

// Label returns the display label for a confidence value
func Label(confidence int) string {
	switch {
	case confidence >= 85:
		return "Highly Credible"
	case confidence >= 70:
		return "Mostly Credible"
	case confidence >= 55:
		return "Moderately Credible"
	case confidence >= 40:
		return "Questionable"
	default:
		return "Low Credibility"
	}
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
