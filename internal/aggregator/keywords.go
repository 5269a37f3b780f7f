package aggregator

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/warroom/warroom-bot/internal/models"
)

// DefaultKeywordLimit is the size of the word cloud / keyword ranking
const DefaultKeywordLimit = 50

// sentimentPrecedence breaks ties between equally common sentiments.
// Alphabetical by label so the result does not depend on row order.
var sentimentPrecedence = []models.Sentiment{
	models.SentimentNegative,
	models.SentimentNeutral,
	models.SentimentPositive,
}

// NormalizeKeyword trims and case-folds a keyword. ok is false for tokens
// too short to be meaningful.
func NormalizeKeyword(keyword string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(keyword))
	if utf8.RuneCountInString(k) < 2 {
		return "", false
	}
	return k, true
}

// RankKeywords counts keyword occurrences across the feed and returns them
// by count descending (keyword ascending on ties). limit <= 0 means no cap.
func RankKeywords(items []models.FeedItem, limit int) []models.KeywordCount {
	counts := make(map[string]*models.KeywordCount)

	for _, item := range items {
		if item.IsArchived() {
			continue
		}
		sentiment := item.Sentiment.Normalize()
		for _, raw := range item.Keywords {
			keyword, ok := NormalizeKeyword(raw)
			if !ok {
				continue
			}
			kc, exists := counts[keyword]
			if !exists {
				kc = &models.KeywordCount{Keyword: keyword}
				counts[keyword] = kc
			}
			kc.Count++
			kc.Breakdown.Add(sentiment)
		}
	}

	ranked := make([]models.KeywordCount, 0, len(counts))
	for _, kc := range counts {
		kc.Sentiment = DominantSentiment(kc.Breakdown)
		ranked = append(ranked, *kc)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Keyword < ranked[j].Keyword
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// DominantSentiment returns the sentiment with the highest count
func DominantSentiment(totals models.SentimentTotals) models.Sentiment {
	best := models.SentimentNeutral
	bestCount := -1
	for _, sentiment := range sentimentPrecedence {
		count := countFor(totals, sentiment)
		if count > bestCount {
			best, bestCount = sentiment, count
		}
	}
	return best
}

func countFor(totals models.SentimentTotals, sentiment models.Sentiment) int {
	switch sentiment {
	case models.SentimentPositive:
		return totals.Positive
	case models.SentimentNegative:
		return totals.Negative
	default:
		return totals.Neutral
	}
}

// EmergentKeywords returns the ranked keywords that are not part of the
// activation's configured list, i.e. topics that surfaced organically.
func EmergentKeywords(ranked []models.KeywordCount, configured []string) []models.KeywordCount {
	known := make(map[string]bool, len(configured))
	for _, keyword := range configured {
		known[strings.ToLower(strings.TrimSpace(keyword))] = true
	}

	var emergent []models.KeywordCount
	for _, kc := range ranked {
		if !known[kc.Keyword] {
			emergent = append(emergent, kc)
		}
	}
	return emergent
}
