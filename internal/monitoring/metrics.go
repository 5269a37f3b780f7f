package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warroom/warroom-bot/internal/models"
)

var (
	// refreshTotal counts summary refreshes by activation and result
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warroom_refresh_total",
		Help: "Total dashboard summary refreshes by activation and result",
	}, []string{"activation", "result"})

	// refreshDuration tracks how long a full refresh of all activations takes
	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warroom_refresh_duration_seconds",
		Help:    "Duration of a refresh of every activation in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// reportsExported counts CSV reports produced by the report job
	reportsExported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warroom_reports_exported_total",
		Help: "Total CSV reports exported by activation",
	}, []string{"activation"})

	// alertsSent counts urgent alerts by type
	alertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warroom_alerts_sent_total",
		Help: "Total urgent alerts sent by type",
	}, []string{"type"})

	// mentionsGauge holds the latest mention counts by sentiment
	mentionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "warroom_mentions",
		Help: "Mentions in the latest summary by activation and sentiment",
	}, []string{"activation", "sentiment"})

	// threatLevelGauge holds the latest global threat level, 0 (BAIXO) to 3 (CRÍTICO)
	threatLevelGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "warroom_global_threat_level",
		Help: "Global threat level of the latest summary, 0 low to 3 critical",
	}, []string{"activation"})
)

// Metrics holds the JSON metrics snapshot served on /metrics
type Metrics struct {
	LastRefresh         time.Time                     `json:"last_refresh"`
	LastRefreshDuration string                        `json:"last_refresh_duration"`
	LastReport          time.Time                     `json:"last_report"`
	ErrorCount          int                           `json:"error_count"`
	Activations         map[string]*ActivationMetrics `json:"activations"`
}

// ActivationMetrics is the per activation part of Metrics
type ActivationMetrics struct {
	Name              string                   `json:"name"`
	TotalMentions     int                      `json:"total_mentions"`
	Sentiment         models.SentimentTotals   `json:"sentiment"`
	GlobalThreatLevel models.GlobalThreatLevel `json:"global_threat_level"`
	LastRefresh       time.Time                `json:"last_refresh"`
	ErrorCount        int                      `json:"error_count"`
}

func globalSeverity(level models.GlobalThreatLevel) float64 {
	switch level {
	case models.GlobalCritical:
		return 3
	case models.GlobalHigh:
		return 2
	case models.GlobalModerate:
		return 1
	default:
		return 0
	}
}

func observeSummary(summary *models.DashboardSummary) {
	totals := summary.KPIs.Sentiment
	mentionsGauge.WithLabelValues(summary.ActivationID, string(models.SentimentPositive)).Set(float64(totals.Positive))
	mentionsGauge.WithLabelValues(summary.ActivationID, string(models.SentimentNegative)).Set(float64(totals.Negative))
	mentionsGauge.WithLabelValues(summary.ActivationID, string(models.SentimentNeutral)).Set(float64(totals.Neutral))
	threatLevelGauge.WithLabelValues(summary.ActivationID).Set(globalSeverity(summary.KPIs.GlobalThreatLevel))
}
