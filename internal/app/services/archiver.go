package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow/internal/app/dto"
	"github.com/taskflow/taskflow/internal/core/aging"
	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/infrastructure/metrics"
	"github.com/taskflow/taskflow/pkg/validation"
)

// LiveBoard is the part of the tracker the archiver reads from and
// removes archived tasks through. *usecases.Tracker implements it.
// RemoveArchivedIf must run qualifies against the live task and remove it
// atomically.
type LiveBoard interface {
	Snapshot() *board.Board
	RemoveArchivedIf(ctx context.Context, taskID string, qualifies func(board.Task) bool) (bool, error)
}

// SweepResult summarises one sweep. Errors holds one entry per task that
// could not be archived. Skipped counts tasks that changed or left the
// board while their record was being saved.
type SweepResult struct {
	At      time.Time
	Stale   int
	Done    int
	Skipped int
	Errors  []error
}

// Response converts the result for the HTTP layer.
func (r SweepResult) Response() dto.SweepResponse {
	resp := dto.SweepResponse{At: r.At, Stale: r.Stale, Done: r.Done, Skipped: r.Skipped}
	for _, err := range r.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}

// Archiver moves stale pending tasks and old completed tasks off the live
// board into the archive.
// PRINCIPLES:
// - SRP: migration only; classification stays in the aging package
// - DIP: depends on LiveBoard and archive.Saver
type Archiver struct {
	board  LiveBoard
	saver  archive.Saver
	logger *slog.Logger
	newID  func() string
}

// ArchiverOption configures an Archiver.
type ArchiverOption func(*Archiver)

// WithArchiverLogger sets the structured logger.
func WithArchiverLogger(l *slog.Logger) ArchiverOption {
	return func(a *Archiver) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecordIDs replaces uuid-based archive record IDs.
func WithRecordIDs(fn func() string) ArchiverOption {
	return func(a *Archiver) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// NewArchiver creates an archiver.
func NewArchiver(b LiveBoard, saver archive.Saver, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		board:  b,
		saver:  saver,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sweep archives every task that is stale or completed long enough ago
// at now. Each record is saved before its task leaves the board, so a
// failure never loses a task. The task is only removed if it is still
// exactly the one that was classified; otherwise the record is deleted
// again and the task counts as skipped. Per-task failures are logged,
// collected and skipped. A cancelled context stops the sweep early.
func (a *Archiver) Sweep(ctx context.Context, now time.Time) SweepResult {
	res := SweepResult{At: now}
	snap := a.board.Snapshot()
	tasks := snap.Tasks()

	stillStale := func(t board.Task) bool { return aging.IsStale(t, now) }
	for _, task := range aging.ClassifyPending(tasks, now).Stale {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err)
			return a.finish(res)
		}
		rec := archive.NewStale(a.newID(), task, topicName(snap, task), now)
		moved, err := a.move(ctx, rec, unchanged(task, stillStale))
		switch {
		case err != nil:
			res.Errors = append(res.Errors, err)
		case moved:
			res.Stale++
		default:
			res.Skipped++
		}
	}
	stillOld := func(t board.Task) bool { return aging.IsOldCompleted(t, now) }
	for _, task := range aging.ClassifyCompleted(tasks, now).Old {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err)
			return a.finish(res)
		}
		rec := archive.NewDone(a.newID(), task, topicName(snap, task), now)
		moved, err := a.move(ctx, rec, unchanged(task, stillOld))
		switch {
		case err != nil:
			res.Errors = append(res.Errors, err)
		case moved:
			res.Done++
		default:
			res.Skipped++
		}
	}
	return a.finish(res)
}

// move saves rec, then removes its task if qualifies still accepts it.
// When the task is not removed the record is deleted again.
func (a *Archiver) move(ctx context.Context, rec *archive.Record, qualifies func(board.Task) bool) (bool, error) {
	if err := a.saver.Save(ctx, rec); err != nil {
		a.logger.Warn("archiver: save failed", "task_id", rec.OriginalTaskID, "kind", rec.Kind, "error", err)
		return false, fmt.Errorf("archive task %s: %w", rec.OriginalTaskID, err)
	}
	moved, err := a.board.RemoveArchivedIf(ctx, rec.OriginalTaskID, qualifies)
	if err == nil && moved {
		a.logger.Debug("archiver: task archived", "task_id", rec.OriginalTaskID, "kind", rec.Kind, "record_id", rec.ID)
		return true, nil
	}
	if err != nil {
		a.logger.Warn("archiver: remove failed, rolling back record", "task_id", rec.OriginalTaskID, "error", err)
	} else {
		a.logger.Info("archiver: task changed during sweep, rolling back record", "task_id", rec.OriginalTaskID, "kind", rec.Kind)
	}
	if derr := a.saver.Delete(ctx, rec.ID); derr != nil {
		err = errors.Join(err, derr)
	}
	if err != nil {
		return false, fmt.Errorf("archive task %s: %w", rec.OriginalTaskID, err)
	}
	return false, nil
}

// unchanged accepts the live task only while it equals the classified
// copy and still passes check.
func unchanged(classified board.Task, check func(board.Task) bool) func(board.Task) bool {
	return func(live board.Task) bool {
		return board.SameTask(classified, live) && check(live)
	}
}

func (a *Archiver) finish(res SweepResult) SweepResult {
	metrics.IncSweeps()
	metrics.TasksArchived(string(archive.KindStale), res.Stale)
	metrics.TasksArchived(string(archive.KindDone), res.Done)
	metrics.AddArchiveErrors(len(res.Errors))
	if res.Stale+res.Done+res.Skipped > 0 || len(res.Errors) > 0 {
		a.logger.Info("archiver: sweep finished", "stale", res.Stale, "done", res.Done, "skipped", res.Skipped, "errors", len(res.Errors))
	}
	return res
}

// List returns archived records matching q, newest first.
func (a *Archiver) List(ctx context.Context, q dto.ArchiveQuery) ([]*archive.Record, error) {
	if err := validation.Struct(&q); err != nil {
		return nil, fmt.Errorf("%w: %w", dto.ErrInvalidRequest, err)
	}
	f := q.Filter()
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", dto.ErrInvalidRequest, err)
	}
	return a.saver.List(ctx, f)
}

// ListStale returns stale records matching q; q.Kind is ignored.
func (a *Archiver) ListStale(ctx context.Context, q dto.ArchiveQuery) ([]archive.StaleRecord, error) {
	q.Kind = archive.KindStale
	records, err := a.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]archive.StaleRecord, 0, len(records))
	for _, r := range records {
		if s, ok := r.AsStale(); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListDone returns done records matching q; q.Kind is ignored.
func (a *Archiver) ListDone(ctx context.Context, q dto.ArchiveQuery) ([]archive.DoneRecord, error) {
	q.Kind = archive.KindDone
	records, err := a.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]archive.DoneRecord, 0, len(records))
	for _, r := range records {
		if d, ok := r.AsDone(); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func topicName(b *board.Board, task board.Task) string {
	if t, ok := b.Topic(task.TopicID); ok {
		return t.Name
	}
	return archive.UnknownTopic
}
