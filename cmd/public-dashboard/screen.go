package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/rotation"
)

const (
	clearScreen = "\033[H\033[2J"
	barWidth    = 30
)

// screen draws snapshots as plain text. It only redraws when something
// visible changed, which keeps the 100ms tick from flooding the terminal.
type screen struct {
	out  io.Writer
	rows int
	last string
}

func newScreen(out io.Writer, rows int) *screen {
	return &screen{out: out, rows: rows}
}

func (s *screen) Render(snap rotation.Snapshot) {
	frame := s.frame(snap)
	if frame == s.last {
		return
	}
	s.last = frame
	fmt.Fprint(s.out, clearScreen+frame)
}

func (s *screen) frame(snap rotation.Snapshot) string {
	var b strings.Builder

	name := "War Room"
	if snap.Summary != nil {
		name = snap.Summary.ActivationName
	}

	var tabs []string
	for p := rotation.Page(0); p < rotation.PageCount; p++ {
		label := pageTitle(p)
		if p == snap.Page {
			label = "[" + label + "]"
		}
		tabs = append(tabs, label)
	}

	state := "▶"
	if snap.State == rotation.StatePaused {
		state = "⏸"
	}

	fmt.Fprintf(&b, "%s  %s\n", name, strings.Join(tabs, " "))
	fmt.Fprintf(&b, "%s %s  atualiza em %ds\n", state, progressBar(snap.Progress), snap.Countdown)
	if snap.LastError != nil {
		fmt.Fprintf(&b, "⚠️  falha ao atualizar: %v\n", snap.LastError)
	}
	b.WriteString(strings.Repeat("─", 60) + "\n")

	if snap.Summary == nil {
		b.WriteString("carregando...\n")
		return b.String()
	}

	switch snap.Page {
	case rotation.PageOverview:
		s.overview(&b, snap.Summary)
	case rotation.PageFeed:
		offset := 0
		if len(snap.Offsets) > 0 {
			offset = int(snap.Offsets[0])
		}
		s.feed(&b, snap.Summary, offset)
	case rotation.PageThreats:
		s.threats(&b, snap.Summary)
	}

	return b.String()
}

func pageTitle(p rotation.Page) string {
	switch p {
	case rotation.PageOverview:
		return "Visão geral"
	case rotation.PageFeed:
		return "Feed"
	case rotation.PageThreats:
		return "Ameaças"
	default:
		return p.String()
	}
}

func progressBar(progress float64) string {
	filled := int(math.Round(progress / 100 * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func (s *screen) overview(b *strings.Builder, summary *models.DashboardSummary) {
	kpis := summary.KPIs
	fmt.Fprintf(b, "Menções: %d   Saldo: %+d   Razão negativa: %s\n", kpis.TotalMentions, kpis.NetSentiment, kpis.NegativeRatio)
	fmt.Fprintf(b, "Positivas: %d   Negativas: %d   Neutras: %d\n", kpis.Sentiment.Positive, kpis.Sentiment.Negative, kpis.Sentiment.Neutral)
	fmt.Fprintf(b, "Risco médio: %d   Alto risco: %d   Crises ativas: %d\n", kpis.AverageRisk, kpis.HighRiskMentions, kpis.ActiveCrises)
	fmt.Fprintf(b, "Nível de ameaça: %s\n\n", kpis.GlobalThreatLevel)

	peak := 0
	for _, bucket := range summary.TimeSeries {
		if bucket.Total > peak {
			peak = bucket.Total
		}
	}
	for _, bucket := range summary.TimeSeries {
		width := 0
		if peak > 0 {
			width = int(math.Round(float64(bucket.Total) / float64(peak) * barWidth))
		}
		fmt.Fprintf(b, "%s %-*s %d (-%d)\n", bucket.Label, barWidth, strings.Repeat("▇", width), bucket.Total, bucket.Negative)
	}

	if len(summary.TopKeywords) > 0 {
		var words []string
		for i, kc := range summary.TopKeywords {
			if i == 8 {
				break
			}
			words = append(words, fmt.Sprintf("%s (%d)", kc.Keyword, kc.Count))
		}
		fmt.Fprintf(b, "\nPalavras-chave: %s\n", strings.Join(words, ", "))
	}
}

func (s *screen) feed(b *strings.Builder, summary *models.DashboardSummary, offset int) {
	items := summary.TopRiskItems
	if len(items) == 0 {
		b.WriteString("Nenhuma menção.\n")
		return
	}
	if offset < 0 || offset >= len(items) {
		offset = 0
	}
	end := offset + s.rows
	if end > len(items) {
		end = len(items)
	}
	for _, item := range items[offset:end] {
		fmt.Fprintf(b, "%3d  %-8s %-20.20s %s\n", item.RiskScore, item.Sentiment.Normalize(), item.SourceName, item.Title)
	}
}

func (s *screen) threats(b *strings.Builder, summary *models.DashboardSummary) {
	if len(summary.ThreatProfiles) == 0 {
		b.WriteString("Nenhum perfil de ameaça.\n")
		return
	}
	for i, p := range summary.ThreatProfiles {
		if i == s.rows {
			break
		}
		fmt.Fprintf(b, "%-9s %-24.24s %3d menções  risco máx. %3d\n", p.Level, p.DisplayName, p.MentionCount, p.MaxRisk)
	}
}
