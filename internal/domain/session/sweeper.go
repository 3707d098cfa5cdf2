package session

import (
	"context"
	"sort"
	"time"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
)

// Sweeper defaults.
const (
	DefaultSweepInterval = 900 * time.Second
	DefaultIdleTimeout   = 3600 * time.Second
)

// EvictionHook is notified after each sweep that removed sessions.
type EvictionHook func(ctx context.Context, evicted []string)

// SweepRecorder receives per-sweep measurements.
type SweepRecorder interface {
	RecordSweep(evicted int, d time.Duration)
	SetActiveSessions(n int)
}

// Sweeper periodically evicts sessions whose newest parameter timestamp is
// older than the idle timeout. Sessions that never had a parameter set are
// not eligible.
type Sweeper struct {
	store    *Store
	interval time.Duration
	timeout  time.Duration
	now      Clock
	logger   logging.Logger
	onEvict  EvictionHook
	recorder SweepRecorder
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithInterval sets the pause between sweeps.
func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithIdleTimeout sets how long a session may go without a parameter update.
func WithIdleTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(c Clock) SweeperOption {
	return func(s *Sweeper) {
		if c != nil {
			s.now = c
		}
	}
}

// WithEvictionHook registers a callback for evicted ids.
func WithEvictionHook(h EvictionHook) SweeperOption {
	return func(s *Sweeper) { s.onEvict = h }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r SweepRecorder) SweeperOption {
	return func(s *Sweeper) { s.recorder = r }
}

// NewSweeper builds a Sweeper over store.
func NewSweeper(store *Store, logger logging.Logger, opts ...SweeperOption) *Sweeper {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Sweeper{
		store:    store,
		interval: DefaultSweepInterval,
		timeout:  DefaultIdleTimeout,
		now:      time.Now,
		logger:   logger.Named("session_sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps immediately and then once per interval until ctx is done.
// Iterations never overlap.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("session sweeper started",
		logging.Duration("interval", s.interval),
		logging.Duration("idle_timeout", s.timeout))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	start := time.Now()
	evicted := s.Sweep(s.now())
	if s.recorder != nil {
		s.recorder.RecordSweep(len(evicted), time.Since(start))
		s.recorder.SetActiveSessions(s.store.Len())
	}
	if len(evicted) == 0 {
		return
	}
	s.logger.Info("evicted idle sessions",
		logging.Int("count", len(evicted)),
		logging.Any("chat_ids", evicted))
	if s.onEvict != nil {
		s.onEvict(ctx, evicted)
	}
}

// Sweep performs one scan at now, removes every stale session and returns
// the evicted chat ids in sorted order.
func (s *Sweeper) Sweep(now time.Time) []string {
	marked := make(map[string]*Session)
	for id, sess := range s.store.snapshot() {
		last := sess.LastUpdate()
		if last.IsZero() {
			continue
		}
		if now.Sub(last) > s.timeout {
			marked[id] = sess
		}
	}

	evicted := make([]string, 0, len(marked))
	for id, sess := range marked {
		if s.store.removeIf(id, sess) {
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

//Personal.AI order the ending
