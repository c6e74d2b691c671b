package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/backoff"
	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/notify"
	"github.com/Arch199/crontrack/schedule"
	"github.com/Arch199/crontrack/user"
)

// State is the lifecycle state of the monitor process.
type State string

const (
	// StateStopped means the loop is not running.
	StateStopped State = "stopped"
	// StateRunning means the loop is evaluating jobs on its tick interval.
	StateRunning State = "running"
	// StateStopping means a stop was requested and the loop will settle at
	// the next safe point.
	StateStopping State = "stopping"
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithTickInterval sets how often the monitor evaluates all jobs.
// Defaults to 60s.
func WithTickInterval(d time.Duration) Option {
	return func(m *Monitor) { m.tickInterval = d }
}

// WithTimeLimit makes the loop self-stop once the next tick would exceed
// start time + d. New fails with ErrInvalidConfiguration when d <= 0.
func WithTimeLimit(d time.Duration) Option {
	return func(m *Monitor) {
		m.timeLimit = d
		m.timeLimitSet = true
	}
}

// WithClock sets the clock driving evaluation. Defaults to the system clock.
func WithClock(c schedule.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithFanout bounds how many recipients are alerted concurrently per job.
// Defaults to 4; 1 serializes the fan-out.
func WithFanout(n int) Option {
	return func(m *Monitor) { m.fanout = n }
}

// WithPageSize sets the incremental fetch size for the job scan.
// Defaults to 200.
func WithPageSize(n int) Option {
	return func(m *Monitor) { m.pageSize = n }
}

// WithRetry configures delivery retries: up to attempts retries after the
// initial failure, delayed by the strategy. Zero attempts disables retries.
func WithRetry(strategy backoff.Strategy, attempts int) Option {
	return func(m *Monitor) {
		m.retryDelay = strategy
		m.retryAttempts = attempts
	}
}

// WithSite sets deployment metadata passed to the message renderer.
func WithSite(site notify.Site) Option {
	return func(m *Monitor) { m.site = site }
}

// WithEvents makes the monitor append a failure event to the job's history
// on every caught miss. Without it no history is kept.
func WithEvents(events event.Store) Option {
	return func(m *Monitor) { m.events = events }
}

// Monitor is the background loop that evaluates every tracked job against
// time, detects missed check-in windows, and fans out alerts with
// per-recipient cooldowns.
type Monitor struct {
	jobs    job.Store
	users   user.Store
	ledger  *alert.Ledger
	channel notify.Channel
	render  notify.Renderer
	events  event.Store
	eval    *schedule.Evaluator
	clock   schedule.Clock
	logger  *slog.Logger
	site    notify.Site

	tickInterval  time.Duration
	timeLimit     time.Duration
	timeLimitSet  bool
	fanout        int
	pageSize      int
	retryAttempts int
	retryDelay    backoff.Strategy

	mu      sync.Mutex
	state   State
	started bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Monitor over the given collaborators. The channel is
// usually a notify.Router wrapped in middleware; render produces alert
// text and is treated as opaque.
//
// Fails with crontrack.ErrInvalidConfiguration on a non-positive tick
// interval, fan-out, page size, an explicitly configured time limit <= 0,
// or a positive retry count without a backoff strategy.
func New(
	jobs job.Store,
	users user.Store,
	ledger *alert.Ledger,
	channel notify.Channel,
	render notify.Renderer,
	opts ...Option,
) (*Monitor, error) {
	m := &Monitor{
		jobs:          jobs,
		users:         users,
		ledger:        ledger,
		channel:       channel,
		render:        render,
		eval:          schedule.NewEvaluator(),
		clock:         schedule.SystemClock{},
		logger:        slog.Default(),
		tickInterval:  60 * time.Second,
		fanout:        4,
		pageSize:      200,
		retryAttempts: 2,
		retryDelay:    backoff.Default(),
		state:         StateStopped,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.tickInterval <= 0 {
		return nil, fmt.Errorf("%w: tick interval %v", crontrack.ErrInvalidConfiguration, m.tickInterval)
	}
	if m.timeLimitSet && m.timeLimit <= 0 {
		return nil, fmt.Errorf("%w: time limit %v must be positive", crontrack.ErrInvalidConfiguration, m.timeLimit)
	}
	if m.fanout < 1 {
		return nil, fmt.Errorf("%w: fanout %d", crontrack.ErrInvalidConfiguration, m.fanout)
	}
	if m.pageSize < 1 {
		return nil, fmt.Errorf("%w: page size %d", crontrack.ErrInvalidConfiguration, m.pageSize)
	}
	if m.retryAttempts < 0 {
		return nil, fmt.Errorf("%w: retry attempts %d", crontrack.ErrInvalidConfiguration, m.retryAttempts)
	}
	if m.retryAttempts > 0 && m.retryDelay == nil {
		return nil, fmt.Errorf("%w: retry attempts %d without a backoff strategy", crontrack.ErrInvalidConfiguration, m.retryAttempts)
	}
	return m, nil
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	return m.State() == StateRunning
}

// Start launches the loop goroutine and returns immediately. A Monitor is
// one-shot: Start succeeds exactly once, and a monitor that has stopped
// cannot be relaunched — construct a new one instead.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("%w: monitor already started", crontrack.ErrInvalidConfiguration)
	}
	m.started = true
	m.state = StateRunning

	go m.run(ctx)

	m.logger.Info("job monitor started",
		slog.Duration("tick_interval", m.tickInterval),
		slog.Bool("time_limited", m.timeLimitSet),
	)
	return nil
}

// Stop signals the loop to settle at the next tick boundary. It is
// idempotent, safe from any goroutine, and never blocks; in-flight sends
// complete before the loop settles. Use Wait to block until stopped.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		if m.state == StateRunning {
			m.state = StateStopping
		}
		m.mu.Unlock()
		close(m.stopCh)
	})
}

// Wait blocks until the loop has fully stopped.
func (m *Monitor) Wait() {
	<-m.doneCh
}

// run is the loop body: evaluate all jobs, then block until the next tick
// or a stop signal. The stop flag is only observed here, at tick
// boundaries, never mid-pass.
func (m *Monitor) run(ctx context.Context) {
	defer m.settle()

	start := m.clock.Now()
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		m.RunOnce(ctx)

		if m.timeLimitSet && m.clock.Now().Add(m.tickInterval).Sub(start) > m.timeLimit {
			m.logger.Info("time limit reached, stopping monitor",
				slog.Duration("time_limit", m.timeLimit),
			)
			m.Stop()
		}

		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			m.Stop()
			return
		case <-ticker.C:
		}
	}
}

// settle moves the state machine to Stopped and releases Wait callers.
func (m *Monitor) settle() {
	m.mu.Lock()
	m.state = StateStopped
	m.mu.Unlock()
	close(m.doneCh)
	m.logger.Info("job monitor stopped")
}
