package taskflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskflow/taskflow/internal/adapters/repository"
	"github.com/taskflow/taskflow/internal/app/dto"
	"github.com/taskflow/taskflow/internal/app/services"
	"github.com/taskflow/taskflow/internal/app/usecases"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/timeposition"
	"github.com/taskflow/taskflow/pkg/serialization"
)

// Re-export core types for convenience
type (
	Topic         = board.Topic
	Task          = board.Task
	Milestone     = board.Milestone
	MilestoneKind = board.MilestoneKind
	Position      = timeposition.Position
	Record        = archive.Record
	Snapshot      = dto.BoardResponse
	SweepResult   = services.SweepResult
)

const (
	Monthly = board.MilestoneMonthly
	Weekly  = board.MilestoneWeekly
)

// Runtime bundles a Tracker with its archiver and storage. Tracker
// methods (CreateTopic, ToggleTask, Undo, ...) are promoted.
type Runtime struct {
	*usecases.Tracker

	archiver      *services.Archiver
	stores        *repository.Stores
	serializer    *serialization.Serializer
	sweepInterval time.Duration
	clock         usecases.Clock
	logger        *slog.Logger
}

type options struct {
	clock    usecases.Clock
	logger   *slog.Logger
	capacity int
}

// Option configures a Runtime.
type Option func(*options)

// WithClock overrides the time source used for new entities and sweeps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = usecases.ClockFunc(now) }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHistoryCapacity bounds the undo stack.
func WithHistoryCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// NewRuntime constructs a runtime over in-memory storage, suitable for
// local usage and tests.
func NewRuntime(opts ...Option) *Runtime {
	cfg := &config.Config{
		StorageDriver:   config.DriverMemory,
		ArchiveDriver:   config.DriverMemory,
		SweepInterval:   services.DefaultSweepInterval,
		Codec:           serialization.CodecMsgPack,
		Compression:     string(serialization.CompressionZstd),
	}
	stores, err := repository.Open(context.Background(), cfg)
	if err != nil {
		// Memory stores with the default serializer cannot fail to open.
		panic(err)
	}
	return newRuntime(cfg, stores, opts)
}

// Open constructs a runtime over the backends cfg names and loads the
// board from them.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	rt := newRuntime(cfg, stores, opts)
	if err := rt.Load(ctx); err != nil {
		_ = stores.Close()
		return nil, err
	}
	return rt, nil
}

func newRuntime(cfg *config.Config, stores *repository.Stores, opts []Option) *Runtime {
	o := options{clock: usecases.SystemClock, logger: slog.Default(), capacity: cfg.HistoryCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	serializer, err := cfg.Serializer()
	if err != nil {
		serializer = serialization.Default()
	}

	tracker := usecases.NewTracker(stores.Entities,
		usecases.WithClock(o.clock),
		usecases.WithLogger(o.logger),
		usecases.WithHistoryCapacity(o.capacity),
	)
	return &Runtime{
		Tracker:       tracker,
		archiver:      services.NewArchiver(tracker, stores.Archive, services.WithArchiverLogger(o.logger)),
		stores:        stores,
		serializer:    serializer,
		sweepInterval: cfg.SweepInterval,
		clock:         o.clock,
		logger:        o.logger,
	}
}

// Archiver exposes archive queries.
func (rt *Runtime) Archiver() *services.Archiver { return rt.archiver }

// Now reads the runtime clock.
func (rt *Runtime) Now() time.Time { return rt.clock.Now() }

// Sweep archives stale and old completed tasks as of the runtime clock.
func (rt *Runtime) Sweep(ctx context.Context) SweepResult {
	return rt.archiver.Sweep(ctx, rt.clock.Now())
}

// Sweeper returns a sweeper on the configured interval. The caller
// starts and stops it.
func (rt *Runtime) Sweeper(opts ...services.SweeperOption) *services.Sweeper {
	base := []services.SweeperOption{
		services.WithInterval(rt.sweepInterval),
		services.WithSweepClock(rt.clock),
		services.WithSweeperLogger(rt.logger),
	}
	return services.NewSweeper(rt.archiver, append(base, opts...)...)
}

// Board returns the live board as a serialisable snapshot.
func (rt *Runtime) Board() Snapshot {
	b := rt.Snapshot()
	return Snapshot{Topics: b.Topics(), Tasks: b.Tasks(), Milestones: b.Milestones()}
}

// Export encodes the live board with the configured serializer.
func (rt *Runtime) Export() ([]byte, error) {
	return rt.serializer.Marshal(rt.Board())
}

// DecodeSnapshot decodes Export output.
func (rt *Runtime) DecodeSnapshot(data []byte) (Snapshot, error) {
	return serialization.Decode[Snapshot](rt.serializer, data)
}

// Ping checks the storage backends.
func (rt *Runtime) Ping(ctx context.Context) error { return rt.stores.Ping(ctx) }

// Close releases the storage backends.
func (rt *Runtime) Close() error { return rt.stores.Close() }

// PositionOf maps date onto the calendar anchored at anchor.
func PositionOf(date, anchor time.Time) Position { return timeposition.FromTime(date, anchor) }

// DateOf is the inverse of PositionOf.
func DateOf(p Position, anchor time.Time) time.Time { return timeposition.ToTime(p, anchor) }
