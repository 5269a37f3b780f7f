package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentimentNormalize(t *testing.T) {
	tests := map[Sentiment]Sentiment{
		"positive":   SentimentPositive,
		" Positivo ": SentimentPositive,
		"NEGATIVA":   SentimentNegative,
		"neutral":    SentimentNeutral,
		"":           SentimentNeutral,
		"mixed":      SentimentNeutral,
	}
	for in, want := range tests {
		assert.Equal(t, want, in.Normalize(), "input %q", in)
	}
}

func TestFeedItemDecodeLenient(t *testing.T) {
	raw := `{
		"id": "f1",
		"title": " Título ",
		"source": "Portal X",
		"source_type": "PORTAL",
		"sentiment": 3,
		"risk_score": "-12",
		"keywords": ["a", null, 5, "b"],
		"created_at": "2026-10-18 09:30:00",
		"metadata": {
			"detected_entities": "Maria Souza",
			"per_entity_analysis": {"João Lima": {"sentiment": "negativo"}, "Ana": "positive", " ": "neutral"},
			"author_username": "@perfil",
			"author_followers": null,
			"author_followers_count": "1500"
		}
	}`

	var item FeedItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.Equal(t, "Título", item.Title)
	assert.Equal(t, "Portal X", item.SourceName)
	assert.Equal(t, "portal", item.SourceType)
	assert.Equal(t, SentimentNeutral, item.Sentiment.Normalize())
	assert.Equal(t, 0, item.RiskScore)
	assert.Equal(t, []string{"a", "b"}, item.Keywords)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC), item.CreatedAt)

	c := item.Classification
	assert.Equal(t, []string{"Maria Souza"}, c.DetectedEntities)
	assert.Equal(t, []EntitySentiment{
		{Entity: "Ana", Sentiment: "positive"},
		{Entity: "João Lima", Sentiment: "negativo"},
	}, c.EntitySentiments)

	require.NotNil(t, c.Author)
	assert.Equal(t, "@perfil", c.Author.Handle)
	require.NotNil(t, c.Author.Followers)
	assert.Equal(t, 1500, *c.Author.Followers)
	assert.Equal(t, "@perfil", c.Author.DisplayName())
}

func TestFeedItemDecodeNestedAuthorAndList(t *testing.T) {
	raw := `{
		"risk_score": 101.6,
		"classification_metadata": {
			"entity_sentiments": [{"entity": "Maria"}, "junk", null, 7, {"name": "João", "sentiment": "negative"}, {"entity": ""}],
			"author": {"name": "Fulano", "avatar": "https://img/1.png", "followers": null, "verified": true}
		}
	}`

	var item FeedItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.Equal(t, 100, item.RiskScore)
	assert.Equal(t, []EntitySentiment{
		{Entity: "Maria"},
		{Entity: "João", Sentiment: "negative"},
	}, item.Classification.EntitySentiments)

	author := item.Classification.Author
	require.NotNil(t, author)
	assert.Equal(t, "Fulano", author.DisplayName())
	assert.Equal(t, "https://img/1.png", author.AvatarURL)
	assert.Nil(t, author.Followers)
	assert.True(t, author.Verified)
}

func TestFeedItemDecodeMissingMetadata(t *testing.T) {
	var item FeedItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","classification_metadata":"oops","created_at":"not a date"}`), &item))

	assert.Nil(t, item.Classification.Author)
	assert.Empty(t, item.Classification.EntitySentiments)
	assert.True(t, item.CreatedAt.IsZero())
	assert.Equal(t, UnknownAuthor, item.Classification.Author.DisplayName())

	assert.Error(t, json.Unmarshal([]byte(`"not an object"`), &item))
}

func TestFeedItemRoundTrip(t *testing.T) {
	followers := 10
	item := FeedItem{
		ID:        "r1",
		Sentiment: SentimentNegative,
		RiskScore: 70,
		CreatedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Classification: Classification{
			EntitySentiments: []EntitySentiment{{Entity: "Maria", Sentiment: SentimentNegative}},
			Author:           &Author{Handle: "@x", Followers: &followers},
		},
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var decoded FeedItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, item, decoded)
}

func TestIsArchived(t *testing.T) {
	assert.True(t, FeedItem{Status: "archived"}.IsArchived())
	assert.True(t, FeedItem{Status: " ARCHIVED"}.IsArchived())
	assert.False(t, FeedItem{}.IsArchived())
}

func TestActivationValidate(t *testing.T) {
	tests := []struct {
		name       string
		activation Activation
		field      string
	}{
		{"valid", Activation{Name: "Eleição", Keywords: []string{"a", "b", "c"}}, ""},
		{"missing name", Activation{Name: " ", Keywords: []string{"a", "b", "c"}}, "name"},
		{"too few keywords", Activation{Name: "x", Keywords: []string{"a", "b"}}, "keywords"},
		{"duplicates do not count", Activation{Name: "x", Keywords: []string{"a", "A ", "b", ""}}, "keywords"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.activation.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCrisisIsActive(t *testing.T) {
	assert.True(t, Crisis{Status: "open"}.IsActive())
	assert.True(t, Crisis{}.IsActive())
	assert.False(t, Crisis{Status: "Resolved"}.IsActive())
	assert.False(t, Crisis{Status: "closed"}.IsActive())
}

func TestSentimentTotals(t *testing.T) {
	var totals SentimentTotals
	for _, s := range []Sentiment{"positive", "negativo", "", "negative"} {
		totals.Add(s)
	}
	assert.Equal(t, SentimentTotals{Positive: 1, Negative: 2, Neutral: 1}, totals)
	assert.Equal(t, 4, totals.Total())
	assert.Equal(t, -1, totals.Net())
}
