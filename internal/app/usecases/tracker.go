package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow/internal/app/dto"
	"github.com/taskflow/taskflow/internal/core/aging"
	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/history"
	"github.com/taskflow/taskflow/internal/core/timeposition"
	"github.com/taskflow/taskflow/internal/infrastructure/metrics"
	"github.com/taskflow/taskflow/pkg/validation"
)

// Tracker is the host controller: it owns the live board and the undo
// history and keeps the repository in step with both.
// PRINCIPLES:
// - SRP: orchestrates mutations, leaves persistence to Repository
// - DIP: depends on Repository and Clock interfaces
// - KISS: one mutex serialises every public method
type Tracker struct {
	mu     sync.Mutex
	board  *board.Board
	log    *history.Log
	repo   Repository
	clock  Clock
	logger *slog.Logger
	newID  func() string

	historyCapacity int
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source.
func WithClock(c Clock) TrackerOption {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithHistoryCapacity bounds the undo stack; n <= 0 keeps the default.
func WithHistoryCapacity(n int) TrackerOption {
	return func(t *Tracker) { t.historyCapacity = n }
}

// WithIDGenerator replaces uuid-based entity IDs.
func WithIDGenerator(fn func() string) TrackerOption {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// NewTracker creates a tracker over repo with an empty board. Call Load
// to hydrate it.
func NewTracker(repo Repository, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		board:  board.New(nil, nil, nil),
		repo:   repo,
		clock:  SystemClock,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = history.NewLog(
		history.WithCapacity(t.historyCapacity),
		history.WithEvictionHook(func(a history.Action) {
			metrics.IncHistoryEvicted()
			t.logger.Debug("tracker: history full, dropped oldest action", "kind", a.Kind(), "action_id", a.ID)
		}),
	)
	return t
}

// Load replaces the board with the repository's contents and clears the
// history.
func (t *Tracker) Load(ctx context.Context) error {
	topics, err := t.repo.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("load topics: %w", err)
	}
	tasks, err := t.repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	milestones, err := t.repo.ListMilestones(ctx)
	if err != nil {
		return fmt.Errorf("load milestones: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.board = board.New(topics, tasks, milestones)
	t.log.Clear()
	metrics.SetHistoryDepth(0)
	t.logger.Info("tracker: board loaded", "topics", len(topics), "tasks", len(tasks), "milestones", len(milestones))
	return nil
}

// Snapshot returns a copy of the live board.
func (t *Tracker) Snapshot() *board.Board {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.board.Clone()
}

// Buckets groups the live tasks by age at now.
func (t *Tracker) Buckets(now time.Time) dto.BucketsResponse {
	t.mu.Lock()
	tasks := t.board.Tasks()
	t.mu.Unlock()
	return dto.BucketsResponse{
		At:        now,
		Pending:   aging.ClassifyPending(tasks, now),
		Completed: aging.ClassifyCompleted(tasks, now),
	}
}

// History reports what undo and redo would do next.
func (t *Tracker) History() dto.HistoryResponse {
	return dto.HistoryResponse{
		CanUndo:  t.log.CanUndo(),
		CanRedo:  t.log.CanRedo(),
		NextUndo: t.log.DescribeLastUndo(),
		NextRedo: t.log.DescribeNextRedo(),
	}
}

func (t *Tracker) CanUndo() bool            { return t.log.CanUndo() }
func (t *Tracker) CanRedo() bool            { return t.log.CanRedo() }
func (t *Tracker) DescribeLastUndo() string { return t.log.DescribeLastUndo() }
func (t *Tracker) DescribeNextRedo() string { return t.log.DescribeNextRedo() }

// Undo reverts the most recent action. ok is false when there is nothing
// to undo.
func (t *Tracker) Undo(ctx context.Context) (description string, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.log.Undo()
	if !ok {
		return "", false, nil
	}
	metrics.IncUndo()
	metrics.SetHistoryDepth(t.log.UndoLen())
	description = history.Describe(a)
	if err := ApplyUndo(t.state(ctx), a); err != nil {
		t.logger.Warn("tracker: undo failed", "kind", a.Kind(), "action_id", a.ID, "error", err)
		return description, true, err
	}
	t.logger.Debug("tracker: undo", "kind", a.Kind(), "description", description)
	return description, true, nil
}

// Redo re-applies the most recently undone action.
func (t *Tracker) Redo(ctx context.Context) (description string, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.log.Redo()
	if !ok {
		return "", false, nil
	}
	metrics.IncRedo()
	metrics.SetHistoryDepth(t.log.UndoLen())
	description = history.Describe(a)
	if err := ApplyRedo(t.state(ctx), a); err != nil {
		t.logger.Warn("tracker: redo failed", "kind", a.Kind(), "action_id", a.ID, "error", err)
		return description, true, err
	}
	t.logger.Debug("tracker: redo", "kind", a.Kind(), "description", description)
	return description, true, nil
}

// CreateTopic adds a topic anchored at the current time.
func (t *Tracker) CreateTopic(ctx context.Context, req dto.CreateTopicRequest) (board.Topic, error) {
	if err := validate(&req); err != nil {
		return board.Topic{}, err
	}
	if req.Icon == "" {
		req.Icon = board.DefaultIcon
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	topic := board.Topic{
		ID:         t.newID(),
		Name:       req.Name,
		ColorIndex: req.ColorIndex,
		Icon:       req.Icon,
		CreatedAt:  t.clock.Now(),
	}
	if err := t.state(ctx).InsertTopic(topic); err != nil {
		return board.Topic{}, fmt.Errorf("create topic: %w", err)
	}
	t.record(history.CreateTopic{Topic: topic})
	return topic, nil
}

// EditTopic replaces a topic's name, icon and colour.
func (t *Tracker) EditTopic(ctx context.Context, req dto.EditTopicRequest) (board.Topic, error) {
	if err := validate(&req); err != nil {
		return board.Topic{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	prior, ok := t.board.Topic(req.ID)
	if !ok {
		return board.Topic{}, notFound("topic", req.ID)
	}
	updated := prior
	updated.Name = req.Name
	updated.Icon = req.Icon
	updated.ColorIndex = req.ColorIndex
	if err := t.state(ctx).ReplaceTopic(updated); err != nil {
		return board.Topic{}, fmt.Errorf("edit topic: %w", err)
	}
	t.record(history.EditTopic{Updated: updated, Prior: prior})
	return updated, nil
}

// DeleteTopic removes a topic with its tasks and milestones.
func (t *Tracker) DeleteTopic(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	topic, ok := t.board.Topic(id)
	if !ok {
		return notFound("topic", id)
	}
	p := history.DeleteTopic{
		TopicID:    id,
		Topic:      topic,
		Tasks:      t.board.TasksForTopic(id),
		Milestones: t.board.MilestonesForTopic(id),
	}
	if err := t.state(ctx).RemoveTopic(id); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	t.record(p)
	return nil
}

// ReorderTopics moves the dragged topic into the target's position. It
// reports false, recording nothing, when either ID is unknown or both
// are the same topic. Order lives on the board only.
func (t *Tracker) ReorderTopics(_ context.Context, req dto.ReorderTopicsRequest) (bool, error) {
	if err := validate(&req); err != nil {
		return false, err
	}
	if req.DraggedID == req.TargetID {
		return false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	prior := t.board.Topics()
	reordered, ok := board.Reorder(prior, req.DraggedID, req.TargetID)
	if !ok {
		return false, nil
	}
	order := board.TopicIDs(reordered)
	t.board.SetTopicOrder(order)
	t.record(history.ReorderTopics{Order: order, PriorOrder: board.TopicIDs(prior)})
	return true, nil
}

// UpdateBio replaces a topic's bio.
func (t *Tracker) UpdateBio(ctx context.Context, req dto.UpdateBioRequest) error {
	if err := validate(&req); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	topic, ok := t.board.Topic(req.TopicID)
	if !ok {
		return notFound("topic", req.TopicID)
	}
	if err := t.state(ctx).SetTopicBio(req.TopicID, req.Bio); err != nil {
		return fmt.Errorf("update bio: %w", err)
	}
	t.record(history.UpdateBio{TopicID: req.TopicID, Bio: req.Bio, PriorBio: topic.Bio})
	return nil
}

// CreateTask adds a pending task to a topic.
func (t *Tracker) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (board.Task, error) {
	if err := validate(&req); err != nil {
		return board.Task{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.board.Topic(req.TopicID); !ok {
		return board.Task{}, notFound("topic", req.TopicID)
	}
	task := board.Task{
		ID:          t.newID(),
		Title:       req.Title,
		Description: req.Description,
		TopicID:     req.TopicID,
		CreatedAt:   t.clock.Now(),
	}
	if err := t.state(ctx).InsertTask(task); err != nil {
		return board.Task{}, fmt.Errorf("create task: %w", err)
	}
	t.record(history.CreateTask{Task: task})
	return task, nil
}

// EditTask replaces a task's title and description.
func (t *Tracker) EditTask(ctx context.Context, req dto.EditTaskRequest) (board.Task, error) {
	if err := validate(&req); err != nil {
		return board.Task{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	prior, ok := t.board.Task(req.ID)
	if !ok {
		return board.Task{}, notFound("task", req.ID)
	}
	updated := prior
	updated.Title = req.Title
	updated.Description = req.Description
	if err := t.state(ctx).ReplaceTask(updated); err != nil {
		return board.Task{}, fmt.Errorf("edit task: %w", err)
	}
	t.record(history.EditTask{Updated: updated, Prior: prior})
	return updated, nil
}

// DeleteTask removes a task.
func (t *Tracker) DeleteTask(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.board.Task(id)
	if !ok {
		return notFound("task", id)
	}
	if err := t.state(ctx).RemoveTask(id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	t.record(history.DeleteTask{TaskID: id, Task: task})
	return nil
}

// ToggleTask flips a task's completion. Completing stamps the time and
// its position in the topic's calendar; uncompleting clears both. The
// topic's completed count follows.
func (t *Tracker) ToggleTask(ctx context.Context, id string) (board.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prior, ok := t.board.Task(id)
	if !ok {
		return board.Task{}, notFound("task", id)
	}

	updated := prior
	updated.Completed = !prior.Completed
	updated.CompletedAt = nil
	updated.Completion = nil
	if updated.Completed {
		now := t.clock.Now()
		updated.CompletedAt = &now
		if topic, ok := t.board.Topic(prior.TopicID); ok {
			pos := timeposition.FromTime(now, topic.CreatedAt)
			updated.Completion = &pos
		}
	}
	if err := toggleTo(t.state(ctx), updated, prior); err != nil {
		return board.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	t.record(history.ToggleTask{Updated: updated, Prior: prior})
	return updated, nil
}

// CreateMilestone pins a milestone to the topic's current month, or
// current week for weekly milestones, after any already in that slot.
func (t *Tracker) CreateMilestone(ctx context.Context, req dto.CreateMilestoneRequest) (board.Milestone, error) {
	if err := validate(&req); err != nil {
		return board.Milestone{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	topic, ok := t.board.Topic(req.TopicID)
	if !ok {
		return board.Milestone{}, notFound("topic", req.TopicID)
	}
	now := t.clock.Now()
	pos := timeposition.FromTime(now, topic.CreatedAt)
	week := 0
	if req.Kind == board.MilestoneWeekly {
		week = pos.Week
	}
	m := board.Milestone{
		ID:        t.newID(),
		Title:     req.Title,
		TopicID:   req.TopicID,
		CreatedAt: now,
		Order:     len(t.board.MilestonesIn(req.TopicID, req.Kind, pos.Month, week)),
		Kind:      req.Kind,
		Month:     pos.Month,
		Week:      week,
	}
	if err := t.state(ctx).InsertMilestone(m); err != nil {
		return board.Milestone{}, fmt.Errorf("create milestone: %w", err)
	}
	t.record(history.CreateMilestone{Milestone: m})
	return m, nil
}

// EditMilestone renames a milestone.
func (t *Tracker) EditMilestone(ctx context.Context, req dto.EditMilestoneRequest) (board.Milestone, error) {
	if err := validate(&req); err != nil {
		return board.Milestone{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	prior, ok := t.board.Milestone(req.ID)
	if !ok {
		return board.Milestone{}, notFound("milestone", req.ID)
	}
	updated := prior
	updated.Title = req.Title
	if err := t.state(ctx).ReplaceMilestone(updated); err != nil {
		return board.Milestone{}, fmt.Errorf("edit milestone: %w", err)
	}
	t.record(history.EditMilestone{Updated: updated, Prior: prior})
	return updated, nil
}

// DeleteMilestone removes a milestone.
func (t *Tracker) DeleteMilestone(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.board.Milestone(id)
	if !ok {
		return notFound("milestone", id)
	}
	if err := t.state(ctx).RemoveMilestone(id); err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	t.record(history.DeleteMilestone{MilestoneID: id, Milestone: m})
	return nil
}

// RemoveArchived drops a task that has been copied to the archive. It
// records no history: archival is not undoable.
func (t *Tracker) RemoveArchived(ctx context.Context, taskID string) error {
	_, err := t.RemoveArchivedIf(ctx, taskID, nil)
	return err
}

// RemoveArchivedIf is RemoveArchived guarded by qualifies, which sees the
// task as it is now on the board; nil accepts any task. The check and the
// removal happen under one lock, so a concurrent toggle or edit either
// lands before the check or waits for the removal. ok is false, and
// nothing changes, when the task is gone or qualifies rejects it.
func (t *Tracker) RemoveArchivedIf(ctx context.Context, taskID string, qualifies func(board.Task) bool) (ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, found := t.board.Task(taskID)
	if !found || (qualifies != nil && !qualifies(task)) {
		return false, nil
	}
	if err := t.state(ctx).RemoveTask(taskID); err != nil {
		return false, fmt.Errorf("remove archived task %s: %w", taskID, err)
	}
	return true, nil
}

func (t *Tracker) state(ctx context.Context) State {
	return &writeThrough{ctx: ctx, repo: t.repo, board: t.board}
}

// record must be called with t.mu held.
func (t *Tracker) record(p history.Payload) {
	a := history.NewAction(p)
	a.Timestamp = t.clock.Now()
	t.log.AddAction(a)
	metrics.ActionRecorded(a.Kind().String())
	metrics.SetHistoryDepth(t.log.UndoLen())
	t.logger.Debug("tracker: recorded action", "kind", a.Kind(), "action_id", a.ID)
}

func validate(req any) error {
	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", dto.ErrInvalidRequest, err)
	}
	return nil
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, dto.ErrNotFound)
}
