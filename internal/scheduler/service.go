package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/config"
	"github.com/warroom/warroom-bot/internal/timeseries"
)

const (
	urgentSchedule = "0 0 */4 * * *"
	reportTimeout  = 30 * time.Minute
	urgentTimeout  = 10 * time.Minute
)

// Runner is the work the scheduler triggers; *monitoring.Service implements it
type Runner interface {
	Refresh(ctx context.Context) error
	RunReport(ctx context.Context) error
	RunUrgentCheck(ctx context.Context) error
}

// Service handles scheduling of the refresh, report and urgent-check jobs
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a new scheduler service running in the configured time zone
func NewService(cfg *config.Config, runner Runner) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{}
	return &Service{
		config: cfg,
		runner: runner,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(timeseries.LoadLocation(cfg.TimeZone)),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ReportSpec returns the cron expression of the report job for a schedule
func ReportSpec(schedule string) string {
	switch schedule {
	case "daily":
		// every day at 9 AM
		return "0 0 9 * * *"
	default:
		// Monday at 9 AM
		return "0 0 9 * * MON"
	}
}

// RefreshSpec returns the cron expression of the refresh job
func RefreshSpec(interval time.Duration) string {
	if interval < time.Second {
		interval = time.Minute
	}
	return fmt.Sprintf("@every %s", interval)
}

// Start registers the jobs and begins the schedule
func (s *Service) Start() error {
	jobs := []struct {
		spec string
		job  func()
	}{
		{RefreshSpec(s.config.RefreshInterval), s.job("refresh", s.config.RefreshInterval, s.runner.Refresh)},
		{ReportSpec(s.config.ReportSchedule), s.job("report", reportTimeout, s.runner.RunReport)},
		{urgentSchedule, s.job("urgent check", urgentTimeout, s.runner.RunUrgentCheck)},
	}

	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.job); err != nil {
			return fmt.Errorf("failed to schedule %q: %w", j.spec, err)
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s reports, refresh every %v and urgent checks every 4 hours",
		s.config.ReportSchedule, s.config.RefreshInterval)
	return nil
}

// job wraps a run with a timeout derived from the scheduler's lifetime
func (s *Service) job(name string, timeout time.Duration, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()

		logrus.Debugf("Starting scheduled %s", name)
		if err := run(ctx); err != nil {
			logrus.Errorf("Scheduled %s failed: %v", name, err)
		}
	}
}

// Stop stops the scheduler, cancels running jobs and waits for them to return
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	logrus.Info("Scheduler stopped")
}

// cronLogger routes cron's own messages to logrus
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logrus.WithFields(fields(keysAndValues)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logrus.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
