package aggregator

import (
	"math"
	"sort"

	"github.com/warroom/warroom-bot/internal/models"
)

const (
	// HighRiskThreshold marks a mention as high risk on the dashboard
	HighRiskThreshold = 70
	// CrisisRiskThreshold marks a mention as crisis-level
	CrisisRiskThreshold = 80
)

// TopRisk returns the n riskiest non-archived items, newest first on ties
func TopRisk(items []models.FeedItem, n int) []models.FeedItem {
	var active []models.FeedItem
	for _, item := range items {
		if !item.IsArchived() {
			active = append(active, item)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].RiskScore != active[j].RiskScore {
			return active[i].RiskScore > active[j].RiskScore
		}
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})

	if n > 0 && len(active) > n {
		active = active[:n]
	}
	return active
}

// AverageRisk is the rounded mean risk score of the non-archived items
func AverageRisk(items []models.FeedItem) int {
	sum, count := 0, 0
	for _, item := range items {
		if item.IsArchived() {
			continue
		}
		sum += item.RiskScore
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}

// CountAtRisk counts non-archived items whose risk score is at least threshold
func CountAtRisk(items []models.FeedItem, threshold int) int {
	count := 0
	for _, item := range items {
		if !item.IsArchived() && item.RiskScore >= threshold {
			count++
		}
	}
	return count
}
