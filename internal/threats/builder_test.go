package threats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warroom/warroom-bot/internal/entities"
	"github.com/warroom/warroom-bot/internal/models"
)

func intPtr(v int) *int { return &v }

func negativeMention(id, handle string, risk int, createdAt time.Time, entity string) models.FeedItem {
	return models.FeedItem{
		ID:         id,
		SourceName: "X",
		SourceType: "social",
		Sentiment:  models.SentimentNegative,
		RiskScore:  risk,
		CreatedAt:  createdAt,
		Classification: models.Classification{
			EntitySentiments: []models.EntitySentiment{{Entity: entity, Sentiment: models.SentimentNegative}},
			Author:           &models.Author{Handle: handle, Name: "Nome " + handle},
		},
	}
}

func TestBuild_RanksCriticalAuthorFirst(t *testing.T) {
	matcher := entities.NewMatcher([]string{"Candidato X"})
	base := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	var items []models.FeedItem
	for i := 0; i < 4; i++ {
		items = append(items, negativeMention(fmt.Sprintf("b%d", i), "@moderado", 50, base, "Candidato X"))
	}
	for i := 0; i < 10; i++ {
		risk := 70
		if i == 3 {
			risk = 85
		}
		items = append(items, negativeMention(fmt.Sprintf("a%d", i), "@critico", risk, base.Add(time.Duration(i)*time.Minute), "Candidato X"))
	}

	profiles := Build(items, matcher)

	require.Len(t, profiles, 2)
	first := profiles[0]
	assert.Equal(t, "@critico", first.Key)
	assert.Equal(t, "Nome @critico", first.DisplayName)
	assert.Equal(t, 10, first.MentionCount)
	assert.Equal(t, 85, first.MaxRisk)
	assert.Equal(t, 72, first.AverageRisk)
	assert.Equal(t, map[string]int{"Candidato X": 10}, first.TargetedEntities)
	assert.Equal(t, base.Add(9*time.Minute), first.LastActivity)
	assert.Equal(t, []string{"social"}, first.SourceTypes)
	assert.Equal(t, models.ThreatCritical, first.Level)

	second := profiles[1]
	assert.Equal(t, "@moderado", second.Key)
	assert.Equal(t, 4, second.MentionCount)
	assert.Equal(t, 50, second.MaxRisk)
	assert.Equal(t, models.ThreatModerate, second.Level)
}

func TestBuild_Filtering(t *testing.T) {
	matcher := entities.NewMatcher([]string{"Candidato X"})
	now := time.Now()

	positive := negativeMention("p", "@a", 90, now, "Candidato X")
	positive.Sentiment = models.SentimentPositive

	archived := negativeMention("arch", "@a", 90, now, "Candidato X")
	archived.Status = models.StatusArchived

	untargeted := negativeMention("u", "@a", 90, now, "Outra Pessoa")

	profiles := Build([]models.FeedItem{positive, archived, untargeted}, matcher)
	assert.Empty(t, profiles)
}

func TestBuild_GroupingKeyFallbacks(t *testing.T) {
	matcher := entities.NewMatcher([]string{"Candidato X"})
	now := time.Now()
	detected := models.Classification{DetectedEntities: []string{"candidato x"}}

	items := []models.FeedItem{
		{ID: "1", Sentiment: "negative", SourceName: "Portal A", Classification: detected},
		{ID: "2", Sentiment: "negative", SourceName: "Portal A", Classification: models.Classification{
			DetectedEntities: []string{"CANDIDATO X"},
			Author:           &models.Author{Name: "Fulano"},
		}},
		{ID: "3", Sentiment: "negative", Classification: detected, CreatedAt: now},
	}

	profiles := Build(items, matcher)

	keys := make(map[string]models.ThreatProfile)
	for _, p := range profiles {
		keys[p.Key] = p
	}
	require.Len(t, keys, 3)
	assert.Equal(t, "Portal A", keys["Portal A"].DisplayName)
	assert.Equal(t, "Fulano", keys["Fulano"].DisplayName)
	assert.Equal(t, models.UnknownAuthor, keys[UnknownKey].DisplayName)
}

func TestBuild_FirstKnownFollowersAndAvatarWin(t *testing.T) {
	matcher := entities.NewMatcher([]string{"Candidato X"})
	now := time.Now()

	first := negativeMention("1", "@perfil", 30, now, "Candidato X")
	second := negativeMention("2", "@perfil", 30, now, "Candidato X")
	second.Classification.Author.Followers = intPtr(1200)
	second.Classification.Author.AvatarURL = "https://img/1.png"
	third := negativeMention("3", "@perfil", 30, now, "Candidato X")
	third.Classification.Author.Followers = intPtr(5)
	third.Classification.Author.AvatarURL = "https://img/2.png"
	fourth := negativeMention("4", "@perfil", 30, now, "Candidato X")

	profiles := Build([]models.FeedItem{first, second, third, fourth}, matcher)

	require.Len(t, profiles, 1)
	require.NotNil(t, profiles[0].Followers)
	assert.Equal(t, 1200, *profiles[0].Followers)
	assert.Equal(t, "https://img/1.png", profiles[0].AvatarURL)
}

func TestBuild_StructuredTargetsOnNegativeItem(t *testing.T) {
	matcher := entities.NewMatcher([]string{"Candidato X", "Candidata Y"})

	item := models.FeedItem{
		Sentiment:  models.SentimentNegative,
		SourceName: "Rádio",
		SourceType: "radio",
		RiskScore:  65,
		Classification: models.Classification{EntitySentiments: []models.EntitySentiment{
			{Entity: "Candidato X", Sentiment: models.SentimentNegative},
			{Entity: "Candidata Y", Sentiment: models.SentimentPositive},
		}},
	}

	profiles := Build([]models.FeedItem{item}, matcher)

	require.Len(t, profiles, 1)
	// the item is negative overall, so both entities count as targeted
	assert.Equal(t, map[string]int{"Candidato X": 1, "Candidata Y": 1}, profiles[0].TargetedEntities)
	assert.Equal(t, models.ThreatHigh, profiles[0].Level)
}

func TestBuild_EmptyFeed(t *testing.T) {
	profiles := Build([]models.FeedItem{}, entities.NewMatcher([]string{"Candidato X"}))

	assert.Empty(t, profiles)
	assert.Equal(t, models.GlobalLow, GlobalLevel(profiles))
}
