package aggregator

import (
	"sort"
	"strings"

	"github.com/warroom/warroom-bot/internal/models"
)

// UnknownSource labels items that arrived without a source name
const UnknownSource = "desconhecido"

// RankSources groups the feed by source name, tracking the most recent
// mention of each. limit <= 0 returns every source.
func RankSources(items []models.FeedItem, limit int) []models.SourceCount {
	bySource := make(map[string]*models.SourceCount)

	for _, item := range items {
		if item.IsArchived() {
			continue
		}
		name := strings.TrimSpace(item.SourceName)
		if name == "" {
			name = UnknownSource
		}
		sc, exists := bySource[name]
		if !exists {
			sc = &models.SourceCount{Source: name}
			bySource[name] = sc
		}
		sc.Count++
		if item.CreatedAt.After(sc.LatestAt) {
			sc.LatestAt = item.CreatedAt
		}
	}

	ranked := make([]models.SourceCount, 0, len(bySource))
	for _, sc := range bySource {
		ranked = append(ranked, *sc)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if !ranked[i].LatestAt.Equal(ranked[j].LatestAt) {
			return ranked[i].LatestAt.After(ranked[j].LatestAt)
		}
		return ranked[i].Source < ranked[j].Source
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
