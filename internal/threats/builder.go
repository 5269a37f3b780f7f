package threats

import (
	"math"
	"sort"
	"strings"

	"github.com/warroom/warroom-bot/internal/entities"
	"github.com/warroom/warroom-bot/internal/models"
)

// UnknownKey groups mentions that carry neither author nor source
const UnknownKey = "unknown"

type accumulator struct {
	profile     models.ThreatProfile
	riskSum     int
	sourceTypes map[string]bool
}

// Build clusters negative mentions of monitored entities by author and
// returns the resulting profiles, most active first. Profiles are rebuilt
// from scratch on every call.
func Build(items []models.FeedItem, matcher *entities.Matcher) []models.ThreatProfile {
	byKey := make(map[string]*accumulator)

	for _, item := range items {
		if item.IsArchived() || item.Sentiment.Normalize() != models.SentimentNegative {
			continue
		}

		targets := targetedEntities(item, matcher)
		if len(targets) == 0 {
			continue
		}

		key, displayName := groupingKey(item)
		acc, exists := byKey[key]
		if !exists {
			acc = &accumulator{
				profile: models.ThreatProfile{
					Key:              key,
					DisplayName:      displayName,
					TargetedEntities: make(map[string]int),
				},
				sourceTypes: make(map[string]bool),
			}
			byKey[key] = acc
		}
		acc.add(item, targets)
	}

	profiles := make([]models.ThreatProfile, 0, len(byKey))
	for _, acc := range byKey {
		profiles = append(profiles, acc.finish())
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].MentionCount != profiles[j].MentionCount {
			return profiles[i].MentionCount > profiles[j].MentionCount
		}
		if profiles[i].MaxRisk != profiles[j].MaxRisk {
			return profiles[i].MaxRisk > profiles[j].MaxRisk
		}
		return profiles[i].Key < profiles[j].Key
	})

	return profiles
}

func (a *accumulator) add(item models.FeedItem, targets []string) {
	p := &a.profile

	p.MentionCount++
	a.riskSum += item.RiskScore
	if item.RiskScore > p.MaxRisk {
		p.MaxRisk = item.RiskScore
	}
	if sourceType := strings.TrimSpace(item.SourceType); sourceType != "" {
		a.sourceTypes[sourceType] = true
	}
	if item.CreatedAt.After(p.LastActivity) {
		p.LastActivity = item.CreatedAt
	}

	// first non-empty value wins and is never overwritten
	if author := item.Classification.Author; author != nil {
		if p.Handle == "" {
			p.Handle = strings.TrimSpace(author.Handle)
		}
		if p.Followers == nil && author.Followers != nil {
			followers := *author.Followers
			p.Followers = &followers
		}
		if p.AvatarURL == "" {
			p.AvatarURL = strings.TrimSpace(author.AvatarURL)
		}
	}

	for _, entity := range targets {
		p.TargetedEntities[entity]++
	}
}

func (a *accumulator) finish() models.ThreatProfile {
	p := a.profile
	if p.MentionCount > 0 {
		p.AverageRisk = int(math.Round(float64(a.riskSum) / float64(p.MentionCount)))
	}

	p.SourceTypes = make([]string, 0, len(a.sourceTypes))
	for sourceType := range a.sourceTypes {
		p.SourceTypes = append(p.SourceTypes, sourceType)
	}
	sort.Strings(p.SourceTypes)

	p.Level = Classify(p.MentionCount, p.MaxRisk)
	return p
}

// targetedEntities returns the monitored entities a negative item attacks.
// With a per-entity breakdown an entity counts when its own sentiment is
// negative or the item as a whole is negative.
func targetedEntities(item models.FeedItem, matcher *entities.Matcher) []string {
	targets, structured := entities.Targets(item, matcher)
	itemNegative := item.Sentiment.Normalize() == models.SentimentNegative

	var names []string
	for _, target := range targets {
		if structured && target.Sentiment != models.SentimentNegative && !itemNegative {
			continue
		}
		names = append(names, target.Entity)
	}
	return names
}

// groupingKey prefers the author handle, then the author name, then the source
func groupingKey(item models.FeedItem) (key, displayName string) {
	author := item.Classification.Author
	source := strings.TrimSpace(item.SourceName)

	if author != nil {
		if handle := strings.TrimSpace(author.Handle); handle != "" {
			return handle, author.DisplayName()
		}
		if name := strings.TrimSpace(author.Name); name != "" {
			return name, name
		}
	}
	if source != "" {
		return source, source
	}
	return UnknownKey, models.UnknownAuthor
}
