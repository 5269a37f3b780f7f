package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/rotation"
)

func sampleSummary() *models.DashboardSummary {
	return &models.DashboardSummary{
		ActivationName: "Eleição 2026",
		KPIs:           models.KPIs{TotalMentions: 3, NetSentiment: -1, NegativeRatio: "2.00", GlobalThreatLevel: models.GlobalModerate},
		TimeSeries: []models.TimeSeriesBucket{
			{Label: "17/10", Total: 1},
			{Label: "18/10", Total: 2, Negative: 1},
		},
		TopRiskItems: []models.FeedItem{
			{Title: "primeira", RiskScore: 90, Sentiment: models.SentimentNegative},
			{Title: "segunda", RiskScore: 50},
			{Title: "terceira", RiskScore: 10},
		},
		ThreatProfiles: []models.ThreatProfile{
			{DisplayName: "@critico", MentionCount: 2, MaxRisk: 90, Level: models.ThreatCritical},
		},
	}
}

func TestScreenOverview(t *testing.T) {
	var out bytes.Buffer
	s := newScreen(&out, 2)
	s.Render(rotation.Snapshot{Page: rotation.PageOverview, State: rotation.StatePlaying, Progress: 50, Countdown: 42, Summary: sampleSummary()})

	frame := out.String()
	assert.Contains(t, frame, "Eleição 2026")
	assert.Contains(t, frame, "[Visão geral]")
	assert.Contains(t, frame, "atualiza em 42s")
	assert.Contains(t, frame, "MODERADO")
	assert.Contains(t, frame, "18/10")
	assert.Contains(t, frame, strings.Repeat("█", 15)+strings.Repeat("░", 15))
}

func TestScreenFeedScrollsWithOffset(t *testing.T) {
	var out bytes.Buffer
	s := newScreen(&out, 2)
	s.Render(rotation.Snapshot{Page: rotation.PageFeed, Offsets: []float64{1.4}, Summary: sampleSummary()})

	frame := out.String()
	assert.NotContains(t, frame, "primeira")
	assert.Contains(t, frame, "segunda")
	assert.Contains(t, frame, "terceira")
}

func TestScreenThreatsAndErrors(t *testing.T) {
	var out bytes.Buffer
	s := newScreen(&out, 2)
	s.Render(rotation.Snapshot{
		Page:      rotation.PageThreats,
		State:     rotation.StatePaused,
		Summary:   sampleSummary(),
		LastError: errors.New("timeout"),
	})

	frame := out.String()
	assert.Contains(t, frame, "⏸")
	assert.Contains(t, frame, "@critico")
	assert.Contains(t, frame, "falha ao atualizar: timeout")
}

func TestScreenSkipsIdenticalFrames(t *testing.T) {
	var out bytes.Buffer
	s := newScreen(&out, 2)
	snap := rotation.Snapshot{Page: rotation.PageOverview}

	s.Render(snap)
	first := out.Len()
	s.Render(snap)
	assert.Equal(t, first, out.Len())
	assert.Contains(t, out.String(), "carregando...")
}
