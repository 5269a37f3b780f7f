package models

import "time"

// KeywordCount is one ranked keyword with the sentiment that dominates it
type KeywordCount struct {
	Keyword   string          `json:"keyword"`
	Count     int             `json:"count"`
	Sentiment Sentiment       `json:"sentiment"`
	Breakdown SentimentTotals `json:"breakdown"`
}

// SourceCount is one row of the source ranking
type SourceCount struct {
	Source   string    `json:"source"`
	Count    int       `json:"count"`
	LatestAt time.Time `json:"latest_at"`
}

// SentimentTotals holds the three running sentiment counters
type SentimentTotals struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Add increments the counter for the given sentiment
func (s *SentimentTotals) Add(sentiment Sentiment) {
	switch sentiment.Normalize() {
	case SentimentPositive:
		s.Positive++
	case SentimentNegative:
		s.Negative++
	default:
		s.Neutral++
	}
}

// Total is the number of items counted
func (s SentimentTotals) Total() int {
	return s.Positive + s.Negative + s.Neutral
}

// Net is positive minus negative
func (s SentimentTotals) Net() int {
	return s.Positive - s.Negative
}

// EntityMention counts how often a monitored entity was targeted
type EntityMention struct {
	Entity    string          `json:"entity"`
	Count     int             `json:"count"`
	Sentiment SentimentTotals `json:"sentiment"`
}

// CoOccurrence counts mentions in which two monitored entities appear together
type CoOccurrence struct {
	EntityA string `json:"entity_a"`
	EntityB string `json:"entity_b"`
	Count   int    `json:"count"`
}

// ThreatLevel classifies a single threat profile
type ThreatLevel string

const (
	ThreatCritical ThreatLevel = "critical"
	ThreatHigh     ThreatLevel = "high"
	ThreatModerate ThreatLevel = "moderate"
	ThreatLow      ThreatLevel = "low"
)

// GlobalThreatLevel summarises all threat profiles of an activation
type GlobalThreatLevel string

const (
	GlobalCritical GlobalThreatLevel = "CRÍTICO"
	GlobalHigh     GlobalThreatLevel = "ALTO"
	GlobalModerate GlobalThreatLevel = "MODERADO"
	GlobalLow      GlobalThreatLevel = "BAIXO"
)

// ThreatProfile aggregates one author's negative mentions against monitored entities
type ThreatProfile struct {
	Key              string         `json:"key"`
	DisplayName      string         `json:"display_name"`
	Handle           string         `json:"handle,omitempty"`
	MentionCount     int            `json:"mention_count"`
	AverageRisk      int            `json:"average_risk"`
	MaxRisk          int            `json:"max_risk"`
	SourceTypes      []string       `json:"source_types"`
	TargetedEntities map[string]int `json:"targeted_entities"`
	LastActivity     time.Time      `json:"last_activity"`
	Followers        *int           `json:"followers,omitempty"`
	AvatarURL        string         `json:"avatar_url,omitempty"`
	Level            ThreatLevel    `json:"level"`
}

// TimeSeriesBucket holds one day of sentiment counts
type TimeSeriesBucket struct {
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	Positive int       `json:"positive"`
	Negative int       `json:"negative"`
	Neutral  int       `json:"neutral"`
	Total    int       `json:"total"`
}

// KPIs are the headline numbers of a dashboard
type KPIs struct {
	TotalMentions     int               `json:"total_mentions"`
	Sentiment         SentimentTotals   `json:"sentiment"`
	NetSentiment      int               `json:"net_sentiment"`
	NegativeRatio     string            `json:"negative_ratio"`
	AverageRisk       int               `json:"average_risk"`
	HighRiskMentions  int               `json:"high_risk_mentions"`
	ActiveCrises      int               `json:"active_crises"`
	ThreatProfiles    int               `json:"threat_profiles"`
	GlobalThreatLevel GlobalThreatLevel `json:"global_threat_level"`
}

// DashboardSummary is the read model assembled for one activation.
// It is an immutable snapshot; a refresh replaces it wholesale.
type DashboardSummary struct {
	ActivationID     string             `json:"activation_id"`
	ActivationName   string             `json:"activation_name"`
	GeneratedAt      time.Time          `json:"generated_at"`
	Location         *time.Location     `json:"-"`
	KPIs             KPIs               `json:"kpis"`
	TopKeywords      []KeywordCount     `json:"top_keywords"`
	EmergentKeywords []KeywordCount     `json:"emergent_keywords"`
	EntityMentions   []EntityMention    `json:"entity_mentions"`
	CoOccurrences    []CoOccurrence     `json:"co_occurrences"`
	Sources          []SourceCount      `json:"sources"`
	TopRiskItems     []FeedItem         `json:"top_risk_items"`
	Crises           []Crisis           `json:"crises"`
	ThreatProfiles   []ThreatProfile    `json:"threat_profiles"`
	TimeSeries       []TimeSeriesBucket `json:"time_series"`
}
