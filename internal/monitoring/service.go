package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/aggregator"
	"github.com/warroom/warroom-bot/internal/config"
	"github.com/warroom/warroom-bot/internal/export"
	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/notifications"
	"github.com/warroom/warroom-bot/internal/sources"
	"github.com/warroom/warroom-bot/internal/storage"
	"github.com/warroom/warroom-bot/internal/timeseries"
)

// UrgentWindow is how far back the urgent check looks for high risk mentions
const UrgentWindow = 4 * time.Hour

// Service assembles dashboard summaries for the configured activations and
// runs the report and urgent-check jobs on top of them
type Service struct {
	config              *config.Config
	feed                sources.FeedSource
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	clock               clockwork.Clock
	loc                 *time.Location

	mu        sync.RWMutex
	snapshots map[string]*models.DashboardSummary
	alerted   map[string]models.GlobalThreatLevel
	metrics   *Metrics
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService creates a new monitoring service. storage and notificationService may be nil.
func NewService(cfg *config.Config, feed sources.FeedSource, storage storage.StorageInterface, notificationService notifications.NotificationInterface, opts ...Option) *Service {
	service := &Service{
		config:              cfg,
		feed:                feed,
		storage:             storage,
		notificationService: notificationService,
		clock:               clockwork.NewRealClock(),
		loc:                 timeseries.LoadLocation(cfg.TimeZone),
		snapshots:           make(map[string]*models.DashboardSummary),
		alerted:             make(map[string]models.GlobalThreatLevel),
		metrics: &Metrics{
			Activations: make(map[string]*ActivationMetrics),
		},
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

type activationData struct {
	activation *models.Activation
	items      []models.FeedItem
	crises     []models.Crisis
}

func (s *Service) collect(ctx context.Context, activationID string) (*activationData, error) {
	activation, err := s.feed.GetActivation(ctx, activationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activation %s: %w", activationID, err)
	}

	items, err := s.feed.ListFeedItems(ctx, activationID, s.config.FeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed for activation %s: %w", activationID, err)
	}

	// Crises are supplementary; the rest of the summary is still useful without them
	crises, err := s.feed.ListCrises(ctx, activationID)
	if err != nil {
		logrus.Warnf("Failed to load crises for activation %s: %v", activationID, err)
		crises = nil
	}

	return &activationData{activation: activation, items: items, crises: crises}, nil
}

func (s *Service) assemble(data *activationData) *models.DashboardSummary {
	return Assemble(Inputs{
		Activation:    *data.activation,
		Items:         data.items,
		Crises:        data.crises,
		FallbackNames: s.config.MonitoredNames,
		TopKeywords:   s.config.TopKeywords,
		Now:           s.clock.Now(),
		Location:      s.loc,
	})
}

// BuildSummary fetches fresh rows for one activation and assembles its summary
func (s *Service) BuildSummary(ctx context.Context, activationID string) (*models.DashboardSummary, error) {
	data, err := s.collect(ctx, activationID)
	if err != nil {
		return nil, err
	}
	return s.assemble(data), nil
}

// Summary returns the cached summary for an activation, building it on first use
func (s *Service) Summary(ctx context.Context, activationID string) (*models.DashboardSummary, error) {
	if summary, ok := s.Snapshot(activationID); ok {
		return summary, nil
	}

	summary, err := s.BuildSummary(ctx, activationID)
	if err != nil {
		return nil, err
	}
	s.storeSnapshot(summary)
	return summary, nil
}

// Snapshot returns the last summary assembled for an activation
func (s *Service) Snapshot(activationID string) (*models.DashboardSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.snapshots[activationID]
	return summary, ok
}

// ActivationIDs lists the configured activations, or every active one when none are configured
func (s *Service) ActivationIDs(ctx context.Context) ([]string, error) {
	if len(s.config.ActivationIDs) > 0 {
		return s.config.ActivationIDs, nil
	}

	activations, err := s.feed.ListActivations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activations: %w", err)
	}

	ids := make([]string, 0, len(activations))
	for _, a := range activations {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// Refresh rebuilds the summaries of every activation concurrently. An
// activation that fails to refresh keeps its previous snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	start := s.clock.Now()

	ids, err := s.ActivationIDs(ctx)
	if err != nil {
		s.recordError("")
		return err
	}

	logrus.Infof("Refreshing %d activations", len(ids))

	var wg sync.WaitGroup
	errorsChan := make(chan error, len(ids))

	for _, id := range ids {
		wg.Add(1)
		go func(activationID string) {
			defer wg.Done()

			summary, err := s.BuildSummary(ctx, activationID)
			if err != nil {
				logrus.Errorf("Error refreshing activation %s: %v", activationID, err)
				refreshTotal.WithLabelValues(activationID, "error").Inc()
				s.recordError(activationID)
				errorsChan <- err
				return
			}

			refreshTotal.WithLabelValues(activationID, "success").Inc()
			s.storeSnapshot(summary)
		}(id)
	}

	wg.Wait()
	close(errorsChan)

	errorCount := 0
	for range errorsChan {
		errorCount++
	}

	duration := s.clock.Since(start)
	refreshDuration.Observe(duration.Seconds())

	s.mu.Lock()
	s.metrics.LastRefresh = s.clock.Now()
	s.metrics.LastRefreshDuration = duration.String()
	s.mu.Unlock()

	if errorCount > 0 {
		return fmt.Errorf("%d of %d activations failed to refresh", errorCount, len(ids))
	}

	logrus.Infof("Refresh completed in %v", duration)
	return nil
}

func (s *Service) storeSnapshot(summary *models.DashboardSummary) {
	observeSummary(summary)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[summary.ActivationID] = summary

	m := s.activationMetrics(summary.ActivationID)
	m.Name = summary.ActivationName
	m.TotalMentions = summary.KPIs.TotalMentions
	m.Sentiment = summary.KPIs.Sentiment
	m.GlobalThreatLevel = summary.KPIs.GlobalThreatLevel
	m.LastRefresh = summary.GeneratedAt
}

func (s *Service) recordError(activationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ErrorCount++
	if activationID != "" {
		s.activationMetrics(activationID).ErrorCount++
	}
}

// activationMetrics must be called with s.mu held
func (s *Service) activationMetrics(activationID string) *ActivationMetrics {
	m, ok := s.metrics.Activations[activationID]
	if !ok {
		m = &ActivationMetrics{}
		s.metrics.Activations[activationID] = m
	}
	return m
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

// ExportReport builds a fresh summary for one activation and renders it as CSV
func (s *Service) ExportReport(ctx context.Context, activationID string) (*models.Report, error) {
	summary, err := s.BuildSummary(ctx, activationID)
	if err != nil {
		return nil, err
	}
	s.storeSnapshot(summary)

	data, err := export.CSV(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to export report for activation %s: %w", activationID, err)
	}

	return &models.Report{
		Summary:  summary,
		Filename: export.Filename(summary),
		CSV:      data,
	}, nil
}

// RunReport exports, archives and delivers the report of every activation.
// A failing activation does not stop the others.
func (s *Service) RunReport(ctx context.Context) error {
	start := s.clock.Now()
	logrus.Info("Starting report run")

	ids, err := s.ActivationIDs(ctx)
	if err != nil {
		return err
	}

	var failures []string
	for _, id := range ids {
		if err := s.reportActivation(ctx, id); err != nil {
			logrus.Errorf("Report for activation %s failed: %v", id, err)
			s.recordError(id)
			failures = append(failures, id)
		}
	}

	s.mu.Lock()
	s.metrics.LastReport = s.clock.Now()
	s.mu.Unlock()

	if len(failures) > 0 {
		return fmt.Errorf("report failed for activations: %s", strings.Join(failures, ", "))
	}

	logrus.Infof("Report run completed in %v for %d activations", s.clock.Since(start), len(ids))
	return nil
}

func (s *Service) reportActivation(ctx context.Context, activationID string) error {
	report, err := s.ExportReport(ctx, activationID)
	if err != nil {
		return err
	}
	reportsExported.WithLabelValues(activationID).Inc()

	if s.storage != nil {
		path := storage.ReportPath(activationID, report.Filename)
		if err := s.storage.Store(ctx, path, report.CSV); err != nil {
			// the report is still delivered without an archive link
			logrus.Errorf("Failed to archive report %s: %v", path, err)
		} else {
			report.ArchivePath = path
		}
	}

	if s.notificationService == nil {
		return nil
	}
	if err := s.notificationService.SendReport(ctx, report); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return nil
}

// RunUrgentCheck alerts on activations whose global threat level escalated to
// ALTO or CRÍTICO, or that received crisis-level mentions in the last UrgentWindow
func (s *Service) RunUrgentCheck(ctx context.Context) error {
	start := s.clock.Now()
	logrus.Info("Starting urgent check")

	ids, err := s.ActivationIDs(ctx)
	if err != nil {
		return err
	}

	sent := 0
	var failures []string
	for _, id := range ids {
		data, err := s.collect(ctx, id)
		if err != nil {
			logrus.Errorf("Urgent check for activation %s failed: %v", id, err)
			s.recordError(id)
			failures = append(failures, id)
			continue
		}

		summary := s.assemble(data)
		s.storeSnapshot(summary)

		level := summary.KPIs.GlobalThreatLevel
		alert := s.urgentAlert(summary, data.items)
		if alert == nil {
			s.markAlerted(id, level)
			continue
		}

		logrus.Infof("Urgent alert for activation %s: %s", id, alert.Title)
		if s.notificationService != nil {
			if err := s.notificationService.SendAlert(ctx, alert); err != nil {
				// level stays unrecorded so the next run retries the escalation
				logrus.Errorf("Failed to send urgent alert for activation %s: %v", id, err)
				failures = append(failures, id)
				continue
			}
		}
		s.markAlerted(id, level)
		alertsSent.WithLabelValues(alert.Type).Inc()
		sent++
	}

	if len(failures) > 0 {
		return fmt.Errorf("urgent check failed for activations: %s", strings.Join(failures, ", "))
	}

	logrus.Infof("Urgent check completed in %v, sent %d alerts", s.clock.Since(start), sent)
	return nil
}

// urgentAlert returns nil when nothing about the activation needs immediate attention
func (s *Service) urgentAlert(summary *models.DashboardSummary, items []models.FeedItem) *models.Alert {
	now := s.clock.Now()
	recent := RecentCrisisItems(items, now.Add(-UrgentWindow))

	level := summary.KPIs.GlobalThreatLevel
	severe := level == models.GlobalCritical || level == models.GlobalHigh

	s.mu.RLock()
	escalated := severe && s.alerted[summary.ActivationID] != level
	s.mu.RUnlock()

	if !escalated && len(recent) == 0 {
		return nil
	}

	alertType := "urgent"
	if level == models.GlobalCritical {
		alertType = "critical"
	}

	var message []string
	if escalated {
		message = append(message, fmt.Sprintf("Nível global de ameaça: %s (%d perfis de ameaça).",
			level, summary.KPIs.ThreatProfiles))
	}
	if len(recent) > 0 {
		message = append(message, fmt.Sprintf("%d menções com risco a partir de %d nas últimas %d horas.",
			len(recent), aggregator.CrisisRiskThreshold, int(UrgentWindow.Hours())))
	}

	return &models.Alert{
		ID:           uuid.NewString(),
		Type:         alertType,
		ActivationID: summary.ActivationID,
		Title:        fmt.Sprintf("%s: nível %s", summary.ActivationName, level),
		Message:      strings.Join(message, " "),
		Items:        recent,
		CreatedAt:    now,
	}
}

// markAlerted remembers the last global level an activation was checked at
func (s *Service) markAlerted(activationID string, level models.GlobalThreatLevel) {
	s.mu.Lock()
	s.alerted[activationID] = level
	s.mu.Unlock()
}

// RecentCrisisItems returns non-archived crisis-level items created at or after since, riskiest first
func RecentCrisisItems(items []models.FeedItem, since time.Time) []models.FeedItem {
	var recent []models.FeedItem
	for _, item := range items {
		if item.RiskScore >= aggregator.CrisisRiskThreshold && !item.CreatedAt.Before(since) {
			recent = append(recent, item)
		}
	}
	return aggregator.TopRisk(recent, 0)
}
