package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/warroom/warroom-bot/internal/config"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRunner) RunReport(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRunner) RunUrgentCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestReportSpec(t *testing.T) {
	assert.Equal(t, "0 0 9 * * *", ReportSpec("daily"))
	assert.Equal(t, "0 0 9 * * MON", ReportSpec("weekly"))
	assert.Equal(t, "0 0 9 * * MON", ReportSpec(""))
}

func TestRefreshSpec(t *testing.T) {
	assert.Equal(t, "@every 1m0s", RefreshSpec(60*time.Second))
	assert.Equal(t, "@every 1m0s", RefreshSpec(0))
	assert.Equal(t, "@every 30s", RefreshSpec(30*time.Second))
}

func TestStartRegistersJobs(t *testing.T) {
	cfg := &config.Config{ReportSchedule: "daily", TimeZone: "America/Sao_Paulo", RefreshInterval: time.Minute}
	s := NewService(cfg, &MockRunner{})

	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.cron.Entries()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.Next.IsZero())
	}
}

func TestJobPassesDeadlineAndSwallowsErrors(t *testing.T) {
	runner := &MockRunner{}
	runner.On("RunReport", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(errors.New("smtp down"))

	s := NewService(&config.Config{}, runner)
	s.job("report", time.Minute, runner.RunReport)()

	runner.AssertExpectations(t)
}

func TestJobsAfterStopSeeCancelledContext(t *testing.T) {
	runner := &MockRunner{}
	s := NewService(&config.Config{}, runner)
	s.Stop()

	runner.On("Refresh", mock.MatchedBy(func(ctx context.Context) bool {
		return errors.Is(ctx.Err(), context.Canceled)
	})).Return(nil)

	s.job("refresh", time.Hour, runner.Refresh)()
	runner.AssertExpectations(t)
}
