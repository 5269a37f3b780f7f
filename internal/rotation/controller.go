package rotation

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/models"
)

// FetchFunc loads the latest dashboard data
type FetchFunc func(ctx context.Context) (*models.DashboardSummary, error)

// Snapshot is what a renderer needs to draw the dashboard
type Snapshot struct {
	Page      Page
	State     State
	Progress  float64
	Countdown int
	Offsets   []float64
	Summary   *models.DashboardSummary
	LastError error
}

type fetchResult struct {
	summary *models.DashboardSummary
	err     error
}

// Controller drives a Machine from a single ticker and applies fetched data.
// All state changes happen on the goroutine running Run; the other methods
// hand commands to it.
type Controller struct {
	machine   *Machine
	scrollers []*Scroller
	fetch     FetchFunc
	onRender  func(Snapshot)

	commands chan func(*Machine)
	results  chan fetchResult

	mu       sync.RWMutex
	snapshot Snapshot
	summary  *models.DashboardSummary
	lastErr  error
	fetching bool
}

// NewController creates a controller. onRender may be nil.
func NewController(cfg Config, fetch FetchFunc, onRender func(Snapshot), scrollers ...*Scroller) *Controller {
	c := &Controller{
		machine:   NewMachine(cfg, scrollers...),
		scrollers: scrollers,
		fetch:     fetch,
		onRender:  onRender,
		commands:  make(chan func(*Machine), 16),
		results:   make(chan fetchResult, 1),
	}
	c.publish()
	return c
}

// Run ticks the machine until ctx is cancelled. Cancelling ctx stops the
// ticker and any fetch in flight.
func (c *Controller) Run(ctx context.Context, clock clockwork.Clock) error {
	tick := c.machine.cfg.Tick
	ticker := clock.NewTicker(tick)
	defer ticker.Stop()

	c.startFetch(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.Chan():
			ev := c.machine.Tick(tick)
			if ev.PageChanged {
				logrus.Debugf("Public dashboard rotated to %s", c.machine.Page())
			}
			if ev.RefreshDue {
				c.startFetch(ctx)
			}

		case cmd := <-c.commands:
			cmd(c.machine)

		case res := <-c.results:
			c.fetching = false
			if res.err != nil {
				logrus.Errorf("Public dashboard refresh failed: %v", res.err)
				c.lastErr = res.err
			} else {
				c.summary = res.summary
				c.lastErr = nil
				c.machine.RefreshSucceeded()
			}
		}

		c.publish()
	}
}

// startFetch runs one fetch in the background; overlapping polls are skipped
func (c *Controller) startFetch(ctx context.Context) {
	if c.fetch == nil || c.fetching {
		return
	}
	c.fetching = true

	go func() {
		summary, err := c.fetch(ctx)
		select {
		case c.results <- fetchResult{summary: summary, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) publish() {
	offsets := make([]float64, len(c.scrollers))
	for i, s := range c.scrollers {
		offsets[i] = s.Offset
	}

	snap := Snapshot{
		Page:      c.machine.Page(),
		State:     c.machine.State(),
		Progress:  c.machine.Progress(),
		Countdown: c.machine.Countdown(),
		Offsets:   offsets,
		Summary:   c.summary,
		LastError: c.lastErr,
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	if c.onRender != nil {
		c.onRender(snap)
	}
}

// Snapshot returns the latest published state
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Next shows the following page immediately
func (c *Controller) Next() { c.send(func(m *Machine) { m.Next() }) }

// Prev shows the previous page immediately
func (c *Controller) Prev() { c.send(func(m *Machine) { m.Prev() }) }

// TogglePause pauses or resumes the page rotation
func (c *Controller) TogglePause() { c.send(func(m *Machine) { m.TogglePause() }) }

func (c *Controller) send(cmd func(*Machine)) {
	select {
	case c.commands <- cmd:
	case <-time.After(time.Second):
		logrus.Warn("Public dashboard command dropped: controller not running")
	}
}
