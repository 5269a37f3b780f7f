package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warroom/warroom-bot/internal/models"
)

func TestBucketize_WindowAndCounts(t *testing.T) {
	loc := LoadLocation("America/Sao_Paulo")
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, loc)

	items := []models.FeedItem{
		{Sentiment: "positive", CreatedAt: now.Add(-1 * time.Hour)},
		{Sentiment: "negative", CreatedAt: now.Add(-2 * time.Hour)},
		{Sentiment: "", CreatedAt: now.Add(-3 * time.Hour)},
		// 01:30 UTC on the 19th is still the 18th in São Paulo
		{Sentiment: "negative", CreatedAt: time.Date(2026, 10, 19, 1, 30, 0, 0, time.UTC)},
		{Sentiment: "positive", CreatedAt: now.AddDate(0, 0, -6)},
		{Sentiment: "positive", CreatedAt: now.AddDate(0, 0, -7)},
		{Sentiment: "negative", CreatedAt: now.Add(-1 * time.Hour), Status: "archived"},
		{Sentiment: "negative"},
	}

	buckets := Bucketize(items, now, loc, DefaultDays)

	require.Len(t, buckets, 7)
	assert.Equal(t, "13/10", buckets[0].Label)
	assert.Equal(t, "19/10", buckets[6].Label)

	assert.Equal(t, models.TimeSeriesBucket{
		Date: time.Date(2026, 10, 19, 0, 0, 0, 0, loc), Label: "19/10",
		Positive: 1, Negative: 1, Neutral: 1, Total: 3,
	}, buckets[6])
	assert.Equal(t, 1, buckets[5].Negative)
	assert.Equal(t, 1, buckets[0].Positive)

	for i, b := range buckets {
		assert.Equal(t, b.Positive+b.Negative+b.Neutral, b.Total)
		if i > 0 {
			assert.Equal(t, buckets[i-1].Date.AddDate(0, 0, 1), b.Date)
		}
	}
	for _, i := range []int{1, 2, 3, 4} {
		assert.Zero(t, buckets[i].Total)
	}
}

func TestBucketize_AlwaysSevenBuckets(t *testing.T) {
	loc := LoadLocation(DefaultZone)
	references := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, loc),
		time.Date(2026, 3, 1, 23, 59, 59, 0, loc),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2018, 11, 4, 12, 0, 0, 0, loc), // DST start in Brazil that year
	}

	for _, ref := range references {
		buckets := Bucketize(nil, ref, loc, DefaultDays)
		require.Len(t, buckets, 7, ref.String())
		for _, b := range buckets {
			assert.Zero(t, b.Total)
			assert.GreaterOrEqual(t, b.Positive, 0)
		}
		assert.Equal(t, StartOfDay(ref, loc), buckets[6].Date)
	}
}

func TestLoadLocation_Fallback(t *testing.T) {
	assert.Equal(t, DefaultZone, LoadLocation("").String())
	assert.Equal(t, DefaultZone, LoadLocation("Not/AZone").String())
	assert.Equal(t, "UTC", LoadLocation("UTC").String())
}
