package model

// RiskLevel is the categorical bucket derived from a composite risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskElevated RiskLevel = "elevated"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// LevelForScore maps a 0-100 score to a RiskLevel. This is the single source
// of truth for risk categorization; no other package derives levels.
func LevelForScore(score int) RiskLevel {
	switch {
	case score < 20:
		return RiskLow
	case score < 40:
		return RiskModerate
	case score < 70:
		return RiskElevated
	case score < 85:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// RiskAssessment is the composite risk verdict for a domain/URL target,
// computed fresh per lookup and never mutated.
type RiskAssessment struct {
	Target       string    `json:"target"`
	Score        int       `json:"risk_score"`
	Level        RiskLevel `json:"risk_level"`
	Factors      []string  `json:"factors"`
	IsSuspicious bool      `json:"is_suspicious"`
}
