package aggregator

import (
	"math"
	"strconv"

	"github.com/warroom/warroom-bot/internal/models"
)

// InfiniteRatio is reported when there are negative mentions but no positive ones
const InfiniteRatio = "∞"

// Sentiment tallies the sentiment distribution of the feed
func Sentiment(items []models.FeedItem) models.SentimentTotals {
	var totals models.SentimentTotals
	for _, item := range items {
		if item.IsArchived() {
			continue
		}
		totals.Add(item.Sentiment)
	}
	return totals
}

// NegativeRatio is negative / positive. It is +Inf when only negatives exist
// and 0 when there is nothing negative.
func NegativeRatio(totals models.SentimentTotals) float64 {
	if totals.Negative == 0 {
		return 0
	}
	if totals.Positive == 0 {
		return math.Inf(1)
	}
	return float64(totals.Negative) / float64(totals.Positive)
}

// NegativeRatioLabel renders NegativeRatio for display
func NegativeRatioLabel(totals models.SentimentTotals) string {
	ratio := NegativeRatio(totals)
	if math.IsInf(ratio, 1) {
		return InfiniteRatio
	}
	return strconv.FormatFloat(ratio, 'f', 2, 64)
}
