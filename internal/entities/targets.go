package entities

import "github.com/warroom/warroom-bot/internal/models"

// Target is a monitored entity referenced by a feed item
type Target struct {
	Entity    string
	Sentiment models.Sentiment
}

// Targets resolves the monitored entities a feed item refers to. The
// per-entity sentiment breakdown is preferred; when the classifier produced
// none, the coarse detected-entities list is matched instead and every hit
// inherits the item's sentiment. structured reports which path was used.
func Targets(item models.FeedItem, m *Matcher) (targets []Target, structured bool) {
	if m.Empty() {
		return nil, false
	}

	itemSentiment := item.Sentiment.Normalize()
	seen := make(map[string]bool)

	if len(item.Classification.EntitySentiments) > 0 {
		for _, es := range item.Classification.EntitySentiments {
			name, ok := m.Match(es.Entity)
			if !ok || seen[name] {
				continue
			}
			seen[name] = true

			sentiment := itemSentiment
			if es.Sentiment != "" {
				sentiment = es.Sentiment.Normalize()
			}
			targets = append(targets, Target{Entity: name, Sentiment: sentiment})
		}
		return targets, true
	}

	for _, name := range m.MatchAll(item.Classification.DetectedEntities) {
		targets = append(targets, Target{Entity: name, Sentiment: itemSentiment})
	}
	return targets, false
}
