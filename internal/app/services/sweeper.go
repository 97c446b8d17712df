package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskflow/taskflow/internal/app/usecases"
)

// DefaultSweepInterval is how often a Sweeper archives by default.
const DefaultSweepInterval = 60 * time.Second

// Sweeper runs an Archiver on a fixed interval.
type Sweeper struct {
	archiver *Archiver
	interval time.Duration
	clock    usecases.Clock
	logger   *slog.Logger
	onSweep  func(SweepResult)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithInterval sets the sweep period; d <= 0 keeps the default.
func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSweepClock overrides the time passed to each sweep.
func WithSweepClock(c usecases.Clock) SweeperOption {
	return func(s *Sweeper) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSweeperLogger sets the structured logger.
func WithSweeperLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// OnSweep registers a callback invoked after every sweep.
func OnSweep(fn func(SweepResult)) SweeperOption {
	return func(s *Sweeper) { s.onSweep = fn }
}

// NewSweeper creates a sweeper around a.
func NewSweeper(a *Archiver, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		archiver: a,
		interval: DefaultSweepInterval,
		clock:    usecases.SystemClock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval reports the sweep period.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// Run sweeps once immediately and then on every tick until ctx is
// cancelled, returning ctx's error.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Start runs the sweeper in the background. Starting a running sweeper
// is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = s.Run(ctx)
	}(s.done)
	s.logger.Info("sweeper: started", "interval", s.interval)
}

// Stop cancels a background run and waits for it to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sweeper: stopped")
}

func (s *Sweeper) sweep(ctx context.Context) {
	res := s.archiver.Sweep(ctx, s.clock.Now())
	if s.onSweep != nil {
		s.onSweep(res)
	}
}
