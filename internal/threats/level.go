package threats

import "github.com/warroom/warroom-bot/internal/models"

// Classify maps a profile's aggregates to a threat level. Checks run from
// the most to the least severe level.
func Classify(mentionCount, maxRisk int) models.ThreatLevel {
	switch {
	case maxRisk >= 80 || mentionCount >= 10:
		return models.ThreatCritical
	case maxRisk >= 60 || mentionCount >= 5:
		return models.ThreatHigh
	case mentionCount >= 2:
		return models.ThreatModerate
	default:
		return models.ThreatLow
	}
}

// Severity orders threat levels; a higher value is more severe
func Severity(level models.ThreatLevel) int {
	switch level {
	case models.ThreatCritical:
		return 3
	case models.ThreatHigh:
		return 2
	case models.ThreatModerate:
		return 1
	default:
		return 0
	}
}

// LevelCounts tallies profiles per threat level
type LevelCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
}

// Summarize counts the profiles at each threat level
func Summarize(profiles []models.ThreatProfile) LevelCounts {
	var counts LevelCounts
	for _, p := range profiles {
		switch p.Level {
		case models.ThreatCritical:
			counts.Critical++
		case models.ThreatHigh:
			counts.High++
		case models.ThreatModerate:
			counts.Moderate++
		default:
			counts.Low++
		}
	}
	return counts
}

// GlobalLevel rolls all profiles of an activation up into one level
func GlobalLevel(profiles []models.ThreatProfile) models.GlobalThreatLevel {
	counts := Summarize(profiles)

	switch {
	case counts.Critical >= 3:
		return models.GlobalCritical
	case counts.Critical >= 1 || counts.High >= 3:
		return models.GlobalHigh
	case len(profiles) >= 3:
		return models.GlobalModerate
	default:
		return models.GlobalLow
	}
}
