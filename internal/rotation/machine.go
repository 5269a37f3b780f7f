package rotation

import "time"

// Page is one screen of the public dashboard
type Page int

const (
	PageOverview Page = iota
	PageFeed
	PageThreats

	// PageCount is the number of pages in the rotation
	PageCount = 3
)

func (p Page) String() string {
	switch p {
	case PageOverview:
		return "overview"
	case PageFeed:
		return "feed"
	case PageThreats:
		return "threats"
	default:
		return "unknown"
	}
}

// State is the playback state of the rotation
type State string

const (
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Config holds the timings of the rotation
type Config struct {
	PageInterval    time.Duration // time spent on each page
	Tick            time.Duration // resolution of the progress accumulator
	RefreshInterval time.Duration // data poll
	ScrollStep      float64       // pixels scrolled per tick on the feed page
}

// DefaultConfig returns the timings used by the public dashboard
func DefaultConfig() Config {
	return Config{
		PageInterval:    15 * time.Second,
		Tick:            100 * time.Millisecond,
		RefreshInterval: 60 * time.Second,
		ScrollStep:      1,
	}
}

// Scroller auto-scrolls one list panel and loops back to the top at the bottom
type Scroller struct {
	Offset         float64
	ContentHeight  float64
	ViewportHeight float64
}

// Advance scrolls by step, wrapping to the top once the bottom is reached
func (s *Scroller) Advance(step float64) {
	bottom := s.ContentHeight - s.ViewportHeight
	if bottom <= 0 {
		s.Offset = 0
		return
	}
	s.Offset += step
	if s.Offset >= bottom {
		s.Offset = 0
	}
}

// Events reports what changed during a tick
type Events struct {
	PageChanged bool
	RefreshDue  bool
}

// Machine is the rotation state machine. It owns every timer of the public
// dashboard and is advanced by explicit ticks; it is not safe for
// concurrent use.
type Machine struct {
	cfg Config

	page    Page
	state   State
	elapsed time.Duration // time spent on the current page

	countdown    time.Duration
	sinceRefresh time.Duration

	scrollers []*Scroller
}

// NewMachine creates a playing machine on the first page
func NewMachine(cfg Config, scrollers ...*Scroller) *Machine {
	defaults := DefaultConfig()
	if cfg.PageInterval <= 0 {
		cfg.PageInterval = defaults.PageInterval
	}
	if cfg.Tick <= 0 {
		cfg.Tick = defaults.Tick
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaults.RefreshInterval
	}

	return &Machine{
		cfg:       cfg,
		page:      PageOverview,
		state:     StatePlaying,
		countdown: cfg.RefreshInterval,
		scrollers: scrollers,
	}
}

// Tick advances every timer by d.
//
// Page progress only accumulates while playing. Auto-scroll runs whenever
// the feed page is showing, paused or not. The refresh poll and countdown
// are independent of both.
func (m *Machine) Tick(d time.Duration) Events {
	var ev Events

	if m.state == StatePlaying {
		m.elapsed += d
		if m.elapsed >= m.cfg.PageInterval {
			m.page = (m.page + 1) % PageCount
			m.elapsed = 0
			ev.PageChanged = true
		}
	}

	if m.page == PageFeed {
		steps := float64(d) / float64(m.cfg.Tick)
		for _, s := range m.scrollers {
			s.Advance(m.cfg.ScrollStep * steps)
		}
	}

	m.countdown -= d
	if m.countdown < 0 {
		m.countdown = 0
	}

	m.sinceRefresh += d
	if m.sinceRefresh >= m.cfg.RefreshInterval {
		m.sinceRefresh = 0
		ev.RefreshDue = true
	}

	return ev
}

// Next moves to the following page and restarts its progress
func (m *Machine) Next() {
	m.page = (m.page + 1) % PageCount
	m.elapsed = 0
}

// Prev moves to the previous page and restarts its progress
func (m *Machine) Prev() {
	m.page = (m.page + PageCount - 1) % PageCount
	m.elapsed = 0
}

// TogglePause switches between playing and paused
func (m *Machine) TogglePause() State {
	if m.state == StatePlaying {
		m.state = StatePaused
	} else {
		m.state = StatePlaying
	}
	return m.state
}

// RefreshSucceeded resets the cosmetic countdown after a successful fetch
func (m *Machine) RefreshSucceeded() {
	m.countdown = m.cfg.RefreshInterval
}

// Page returns the active page
func (m *Machine) Page() Page { return m.page }

// State returns the playback state
func (m *Machine) State() State { return m.state }

// Progress is the share of the page interval elapsed, 0 to 100
func (m *Machine) Progress() float64 {
	p := float64(m.elapsed) / float64(m.cfg.PageInterval) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Countdown is the number of whole seconds shown until the next refresh
func (m *Machine) Countdown() int {
	return int((m.countdown + time.Second - 1) / time.Second)
}
