package monitoring

import (
	"time"

	"github.com/warroom/warroom-bot/internal/aggregator"
	"github.com/warroom/warroom-bot/internal/entities"
	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/threats"
	"github.com/warroom/warroom-bot/internal/timeseries"
)

const (
	topRiskItems     = 10
	topCoOccurrences = 10
)

// Inputs bundles the rows one dashboard summary is assembled from
type Inputs struct {
	Activation models.Activation
	Items      []models.FeedItem
	Crises     []models.Crisis
	// FallbackNames are monitored when the activation has no people of interest
	FallbackNames []string
	TopKeywords   int
	Now           time.Time
	Location      *time.Location
}

// MonitoredNames returns the entity names tracked for an activation
func MonitoredNames(activation models.Activation, fallback []string) []string {
	if len(activation.PeopleOfInterest) > 0 {
		return activation.PeopleOfInterest
	}
	return fallback
}

// Assemble runs every aggregation over the rows and returns the read model
func Assemble(in Inputs) *models.DashboardSummary {
	loc := in.Location
	if loc == nil {
		loc = timeseries.LoadLocation("")
	}
	topKeywords := in.TopKeywords
	if topKeywords <= 0 {
		topKeywords = aggregator.DefaultKeywordLimit
	}

	matcher := entities.NewMatcher(MonitoredNames(in.Activation, in.FallbackNames))
	totals := aggregator.Sentiment(in.Items)
	// emergent keywords are taken from every observed keyword, not just the top list
	observed := aggregator.RankKeywords(in.Items, 0)
	keywords := observed
	if len(keywords) > topKeywords {
		keywords = keywords[:topKeywords]
	}
	profiles := threats.Build(in.Items, matcher)

	activeCrises := 0
	for _, c := range in.Crises {
		if c.IsActive() {
			activeCrises++
		}
	}

	return &models.DashboardSummary{
		ActivationID:   in.Activation.ID,
		ActivationName: in.Activation.Name,
		GeneratedAt:    in.Now,
		Location:       loc,
		KPIs: models.KPIs{
			TotalMentions:     totals.Total(),
			Sentiment:         totals,
			NetSentiment:      totals.Net(),
			NegativeRatio:     aggregator.NegativeRatioLabel(totals),
			AverageRisk:       aggregator.AverageRisk(in.Items),
			HighRiskMentions:  aggregator.CountAtRisk(in.Items, aggregator.HighRiskThreshold),
			ActiveCrises:      activeCrises,
			ThreatProfiles:    len(profiles),
			GlobalThreatLevel: threats.GlobalLevel(profiles),
		},
		TopKeywords:      keywords,
		EmergentKeywords: aggregator.EmergentKeywords(observed, in.Activation.Keywords),
		EntityMentions:   aggregator.EntityMentions(in.Items, matcher),
		CoOccurrences:    aggregator.CoOccurrences(in.Items, matcher, topCoOccurrences),
		Sources:          aggregator.RankSources(in.Items, 0),
		TopRiskItems:     aggregator.TopRisk(in.Items, topRiskItems),
		Crises:           in.Crises,
		ThreatProfiles:   profiles,
		TimeSeries:       timeseries.Bucketize(in.Items, in.Now, loc, timeseries.DefaultDays),
	}
}
