package aggregator

import (
	"sort"

	"github.com/warroom/warroom-bot/internal/entities"
	"github.com/warroom/warroom-bot/internal/models"
)

// EntityMentions counts, per monitored entity, the mentions that target it
// with the sentiment each mention expressed towards it. Entities that were
// never mentioned still appear with zero counts, in configuration order
// after the mentioned ones.
func EntityMentions(items []models.FeedItem, matcher *entities.Matcher) []models.EntityMention {
	byEntity := make(map[string]*models.EntityMention)
	for _, name := range matcher.Names() {
		byEntity[name] = &models.EntityMention{Entity: name}
	}

	for _, item := range items {
		if item.IsArchived() {
			continue
		}
		targets, _ := entities.Targets(item, matcher)
		for _, target := range targets {
			em := byEntity[target.Entity]
			em.Count++
			em.Sentiment.Add(target.Sentiment)
		}
	}

	order := make(map[string]int)
	result := make([]models.EntityMention, 0, len(byEntity))
	for i, name := range matcher.Names() {
		order[name] = i
		result = append(result, *byEntity[name])
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return order[result[i].Entity] < order[result[j].Entity]
	})
	return result
}

type entityPair struct {
	a, b string
}

func newEntityPair(x, y string) entityPair {
	if y < x {
		x, y = y, x
	}
	return entityPair{a: x, b: y}
}

// CoOccurrences counts unordered pairs of monitored entities that appear
// together in one item's per-entity analysis. limit <= 0 returns every pair.
func CoOccurrences(items []models.FeedItem, matcher *entities.Matcher, limit int) []models.CoOccurrence {
	counts := make(map[entityPair]int)

	for _, item := range items {
		if item.IsArchived() {
			continue
		}
		targets, structured := entities.Targets(item, matcher)
		if !structured {
			continue
		}
		for i := 0; i < len(targets); i++ {
			for j := i + 1; j < len(targets); j++ {
				counts[newEntityPair(targets[i].Entity, targets[j].Entity)]++
			}
		}
	}

	pairs := make([]models.CoOccurrence, 0, len(counts))
	for pair, count := range counts {
		pairs = append(pairs, models.CoOccurrence{EntityA: pair.a, EntityB: pair.b, Count: count})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].EntityA != pairs[j].EntityA {
			return pairs[i].EntityA < pairs[j].EntityA
		}
		return pairs[i].EntityB < pairs[j].EntityB
	})

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
