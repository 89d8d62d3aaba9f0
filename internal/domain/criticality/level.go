package criticality

// Presentation bands for a criticality score.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// Level maps a score onto low (<40), medium (<60), high (<80) or critical.
func Level(score float64) string {
	switch {
	case score < 40:
		return LevelLow
	case score < 60:
		return LevelMedium
	case score < 80:
		return LevelHigh
	default:
		return LevelCritical
	}
}
