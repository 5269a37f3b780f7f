package models

import (
	"strings"
	"time"
)

// Sentiment is the polarity assigned to a mention by the classification pipeline
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Normalize maps loose labels to one of the three known sentiments.
// Anything unrecognised (including empty) is neutral.
func (s Sentiment) Normalize() Sentiment {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "positive", "positivo", "positiva":
		return SentimentPositive
	case "negative", "negativo", "negativa":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// StatusArchived marks a soft-deleted feed item
const StatusArchived = "archived"

// FeedItem represents one observed mention of an activation
type FeedItem struct {
	ID             string         `json:"id"`
	ActivationID   string         `json:"activation_id"`
	Title          string         `json:"title"`
	Summary        string         `json:"summary"`
	SourceName     string         `json:"source_name"`
	SourceType     string         `json:"source_type"` // "portal", "social", "tv", "radio"
	Sentiment      Sentiment      `json:"sentiment"`
	RiskScore      int            `json:"risk_score"` // 0-100
	Keywords       []string       `json:"keywords"`
	Status         string         `json:"status"`
	URL            string         `json:"url"`
	CreatedAt      time.Time      `json:"created_at"`
	Classification Classification `json:"classification_metadata"`
}

// IsArchived reports whether the item was soft-deleted upstream
func (f FeedItem) IsArchived() bool {
	return strings.EqualFold(strings.TrimSpace(f.Status), StatusArchived)
}

// Classification holds the loosely-typed metadata attached by the classifier.
// Every field is optional; see FeedItem.UnmarshalJSON for the defaulting rules.
type Classification struct {
	DetectedEntities []string          `json:"detected_entities,omitempty"`
	EntitySentiments []EntitySentiment `json:"entity_sentiments,omitempty"`
	Author           *Author           `json:"author,omitempty"`
}

// EntitySentiment is the classifier's verdict for one entity inside a mention
type EntitySentiment struct {
	Entity    string    `json:"entity"`
	Sentiment Sentiment `json:"sentiment"`
}

// UnknownAuthor is shown when a mention carries no author identity
const UnknownAuthor = "desconhecido"

// Author identifies who published a mention
type Author struct {
	Name      string `json:"name,omitempty"`
	Handle    string `json:"handle,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Followers *int   `json:"followers,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
}

// DisplayName returns the best human-readable label for the author
func (a *Author) DisplayName() string {
	if a == nil {
		return UnknownAuthor
	}
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	if handle := strings.TrimSpace(a.Handle); handle != "" {
		return handle
	}
	return UnknownAuthor
}

// Activation is a monitoring campaign with its configured watch terms
type Activation struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Keywords         []string  `json:"keywords"`
	PeopleOfInterest []string  `json:"people_of_interest"`
	Status           string    `json:"status"`
	PublicToken      string    `json:"public_token,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MinActivationKeywords is the smallest keyword list an activation may be saved with
const MinActivationKeywords = 3

// Validate checks an activation before it is written back to the database
func (a Activation) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}

	distinct := make(map[string]struct{})
	for _, keyword := range a.Keywords {
		if k := strings.ToLower(strings.TrimSpace(keyword)); k != "" {
			distinct[k] = struct{}{}
		}
	}
	if len(distinct) < MinActivationKeywords {
		return &ValidationError{
			Field:   "keywords",
			Message: "at least 3 distinct keywords are required",
		}
	}

	return nil
}

// Crisis is a crisis event raised by the detection backend for an activation
type Crisis struct {
	ID           string    `json:"id"`
	ActivationID string    `json:"activation_id"`
	Title        string    `json:"title"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsActive reports whether the crisis is still open
func (c Crisis) IsActive() bool {
	switch strings.ToLower(strings.TrimSpace(c.Status)) {
	case "resolved", "closed", "dismissed", "archived":
		return false
	default:
		return true
	}
}

// Alert represents an urgent notification
type Alert struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"` // "critical", "urgent", "info"
	ActivationID string     `json:"activation_id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Items        []FeedItem `json:"items,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Report is an exported dashboard summary ready for delivery
type Report struct {
	Summary     *DashboardSummary `json:"summary"`
	Filename    string            `json:"filename"`
	ArchivePath string            `json:"archive_path,omitempty"`
	CSV         []byte            `json:"-"`
}

// ValidationError is returned when input is rejected before any write happens
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
