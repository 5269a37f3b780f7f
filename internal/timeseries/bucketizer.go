package timeseries

import (
	"time"

	_ "time/tzdata" // named zones must resolve on hosts without a zoneinfo database

	"github.com/warroom/warroom-bot/internal/models"
)

const (
	// DefaultDays is the width of the dashboard's trailing window
	DefaultDays = 7
	// DefaultZone is the zone day boundaries are computed in
	DefaultZone = "America/Sao_Paulo"

	labelLayout = "02/01"
)

// LoadLocation resolves a zone name, falling back to DefaultZone and then UTC
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultZone); err == nil {
		return loc
	}
	return time.UTC
}

// StartOfDay truncates t to midnight in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Bucketize counts mentions per day over the trailing window of days that
// ends with the day containing now. Every day of the window is present in
// the result, oldest first, even when no mention falls in it.
func Bucketize(items []models.FeedItem, now time.Time, loc *time.Location, days int) []models.TimeSeriesBucket {
	if loc == nil {
		loc = time.UTC
	}
	if days <= 0 {
		days = DefaultDays
	}

	// days are built from calendar fields so a zone transition at midnight
	// yields the same instant StartOfDay computes for mentions on that day
	local := now.In(loc)
	year, month, dayOfMonth := local.Date()
	offset := dayOfMonth - (days - 1)

	buckets := make([]models.TimeSeriesBucket, days)
	index := make(map[time.Time]int, days)
	for i := 0; i < days; i++ {
		day := time.Date(year, month, offset+i, 0, 0, 0, 0, loc)
		buckets[i] = models.TimeSeriesBucket{Date: day, Label: day.Format(labelLayout)}
		index[day] = i
	}

	for _, item := range items {
		if item.IsArchived() || item.CreatedAt.IsZero() {
			continue
		}
		i, ok := index[StartOfDay(item.CreatedAt, loc)]
		if !ok {
			continue
		}
		b := &buckets[i]
		switch item.Sentiment.Normalize() {
		case models.SentimentPositive:
			b.Positive++
		case models.SentimentNegative:
			b.Negative++
		default:
			b.Neutral++
		}
		b.Total++
	}

	return buckets
}
