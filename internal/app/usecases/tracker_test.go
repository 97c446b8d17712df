package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/adapters/repository/memory"
	"github.com/taskflow/taskflow/internal/app/dto"
	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/timeposition"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker(t *testing.T) (*Tracker, *memory.EntityRepository, *fakeClock) {
	t.Helper()
	repo := memory.NewEntityRepository()
	clock := &fakeClock{now: anchor}
	n := 0
	tr := NewTracker(repo,
		WithClock(clock),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	return tr, repo, clock
}

func assertRepoMatchesBoard(t *testing.T, repo *memory.EntityRepository, b *board.Board) {
	t.Helper()
	ctx := context.Background()
	topics, err := repo.ListTopics(ctx)
	require.NoError(t, err)
	tasks, err := repo.ListTasks(ctx)
	require.NoError(t, err)
	milestones, err := repo.ListMilestones(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, b.Topics(), topics)
	assert.ElementsMatch(t, b.Tasks(), tasks)
	assert.ElementsMatch(t, b.Milestones(), milestones)
}

func TestTracker_ToggleUndoRedo(t *testing.T) {
	ctx := context.Background()
	tr, repo, clock := newTestTracker(t)

	health, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Health", ColorIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, board.DefaultIcon, health.Icon)
	run, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: health.ID, Title: "Run"})
	require.NoError(t, err)

	before := tr.Snapshot()
	clock.Advance(9 * 24 * time.Hour)
	done, err := tr.ToggleTask(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, clock.now, *done.CompletedAt)
	assert.Equal(t, &timeposition.Position{Month: 1, Week: 2, Day: 3}, done.Completion)
	topic, _ := tr.Snapshot().Topic(health.ID)
	assert.Equal(t, 1, topic.CompletedTasks)
	after := tr.Snapshot()
	assert.Equal(t, "Complete task", tr.DescribeLastUndo())

	desc, ok, err := tr.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Complete task", desc)
	assertSameBoard(t, before, tr.Snapshot())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())

	desc, ok, err = tr.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Complete task", desc)
	assertSameBoard(t, after, tr.Snapshot())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())

	undone, err := tr.ToggleTask(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.CompletedAt)
	assert.Nil(t, undone.Completion)
	assert.Equal(t, "Uncomplete task", tr.DescribeLastUndo())
	assert.False(t, tr.CanRedo())
}

func TestTracker_ReorderTopics(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: name})
		require.NoError(t, err)
		ids = append(ids, topic.ID)
	}
	names := func() []string {
		var out []string
		for _, topic := range tr.Snapshot().Topics() {
			out = append(out, topic.Name)
		}
		return out
	}

	moved, err := tr.ReorderTopics(ctx, dto.ReorderTopicsRequest{DraggedID: ids[0], TargetID: ids[1]})
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, []string{"B", "A", "C"}, names())
	assert.Equal(t, "Reorder topics", tr.DescribeLastUndo())

	_, _, err = tr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names())

	_, _, err = tr.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, names())

	t.Run("unknown id is a no-op", func(t *testing.T) {
		moved, err := tr.ReorderTopics(ctx, dto.ReorderTopicsRequest{DraggedID: "nope", TargetID: ids[0]})
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, []string{"B", "A", "C"}, names())
	})

	t.Run("same id is a no-op", func(t *testing.T) {
		moved, err := tr.ReorderTopics(ctx, dto.ReorderTopicsRequest{DraggedID: ids[0], TargetID: ids[0]})
		require.NoError(t, err)
		assert.False(t, moved)
	})
}

func TestTracker_DeleteTopicUndo(t *testing.T) {
	ctx := context.Background()
	tr, repo, _ := newTestTracker(t)
	topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Work", Icon: "Briefcase"})
	require.NoError(t, err)
	_, err = tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Ship"})
	require.NoError(t, err)
	_, err = tr.CreateMilestone(ctx, dto.CreateMilestoneRequest{TopicID: topic.ID, Title: "Launch", Kind: board.MilestoneMonthly})
	require.NoError(t, err)
	before := tr.Snapshot()

	require.NoError(t, tr.DeleteTopic(ctx, topic.ID))
	assert.Empty(t, tr.Snapshot().Tasks())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())
	assert.Equal(t, `Delete topic "Work"`, tr.DescribeLastUndo())

	_, ok, err := tr.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assertSameBoard(t, before, tr.Snapshot())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())
}

func TestTracker_Edits(t *testing.T) {
	ctx := context.Background()
	tr, repo, _ := newTestTracker(t)
	topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Health"})
	require.NoError(t, err)
	task, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Run"})
	require.NoError(t, err)
	m, err := tr.CreateMilestone(ctx, dto.CreateMilestoneRequest{TopicID: topic.ID, Title: "5k", Kind: board.MilestoneWeekly})
	require.NoError(t, err)

	edited, err := tr.EditTopic(ctx, dto.EditTopicRequest{ID: topic.ID, Name: "Fitness", Icon: "Dumbbell", ColorIndex: 4})
	require.NoError(t, err)
	assert.Equal(t, "Fitness", edited.Name)
	assert.Equal(t, topic.CreatedAt, edited.CreatedAt)
	assert.Equal(t, `Edit topic "Fitness"`, tr.DescribeLastUndo())

	_, err = tr.EditTask(ctx, dto.EditTaskRequest{ID: task.ID, Title: "Run 5k", Description: "before work"})
	require.NoError(t, err)
	assert.Equal(t, `Edit task "Run 5k"`, tr.DescribeLastUndo())

	_, err = tr.EditMilestone(ctx, dto.EditMilestoneRequest{ID: m.ID, Title: "10k"})
	require.NoError(t, err)
	assert.Equal(t, `Edit milestone "10k"`, tr.DescribeLastUndo())

	require.NoError(t, tr.UpdateBio(ctx, dto.UpdateBioRequest{TopicID: topic.ID, Bio: "stay fit"}))
	assert.Equal(t, "Update topic bio", tr.DescribeLastUndo())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())

	for tr.CanUndo() {
		_, _, err := tr.Undo(ctx)
		require.NoError(t, err)
	}
	assert.Empty(t, tr.Snapshot().Topics())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())

	for tr.CanRedo() {
		_, _, err := tr.Redo(ctx)
		require.NoError(t, err)
	}
	got, ok := tr.Snapshot().Topic(topic.ID)
	require.True(t, ok)
	assert.Equal(t, "Fitness", got.Name)
	assert.Equal(t, "stay fit", got.Bio)
	assertRepoMatchesBoard(t, repo, tr.Snapshot())
}

func TestTracker_CreateMilestoneSlot(t *testing.T) {
	ctx := context.Background()
	tr, _, clock := newTestTracker(t)
	topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Music"})
	require.NoError(t, err)

	clock.Advance(40 * 24 * time.Hour) // month 2, week 2
	first, err := tr.CreateMilestone(ctx, dto.CreateMilestoneRequest{TopicID: topic.ID, Title: "Scales", Kind: board.MilestoneWeekly})
	require.NoError(t, err)
	second, err := tr.CreateMilestone(ctx, dto.CreateMilestoneRequest{TopicID: topic.ID, Title: "Chords", Kind: board.MilestoneWeekly})
	require.NoError(t, err)
	monthly, err := tr.CreateMilestone(ctx, dto.CreateMilestoneRequest{TopicID: topic.ID, Title: "Recital", Kind: board.MilestoneMonthly})
	require.NoError(t, err)

	assert.Equal(t, 2, first.Month)
	assert.Equal(t, 2, first.Week)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, 2, monthly.Month)
	assert.Equal(t, 0, monthly.Week)
	assert.Equal(t, 0, monthly.Order)
}

func TestTracker_Errors(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	_, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: ""})
	assert.ErrorIs(t, err, dto.ErrInvalidRequest)
	_, err = tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "x", Icon: "Spaceship"})
	assert.ErrorIs(t, err, dto.ErrInvalidRequest)
	_, err = tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: "missing", Title: "Run"})
	assert.ErrorIs(t, err, dto.ErrNotFound)
	_, err = tr.EditTask(ctx, dto.EditTaskRequest{ID: "missing", Title: "Run"})
	assert.ErrorIs(t, err, dto.ErrNotFound)
	_, err = tr.ToggleTask(ctx, "missing")
	assert.ErrorIs(t, err, dto.ErrNotFound)
	assert.ErrorIs(t, tr.DeleteMilestone(ctx, "missing"), dto.ErrNotFound)
	_, err = tr.CreateMilestone(ctx, dto.CreateMilestoneRequest{TopicID: "missing", Title: "x", Kind: "yearly"})
	assert.ErrorIs(t, err, dto.ErrInvalidRequest)

	assert.False(t, tr.CanUndo())
	_, ok, err := tr.Undo(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = tr.Redo(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTracker_LoadAndRemoveArchived(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEntityRepository()
	topic := board.Topic{ID: "t1", Name: "Health", Icon: "Heart", CreatedAt: anchor}
	task := board.Task{ID: "k1", Title: "Run", TopicID: "t1", CreatedAt: anchor}
	require.NoError(t, repo.CreateTopic(ctx, topic))
	require.NoError(t, repo.CreateTask(ctx, task))

	tr := NewTracker(repo, WithClock(&fakeClock{now: anchor}))
	require.NoError(t, tr.Load(ctx))
	assert.Equal(t, []board.Task{task}, tr.Snapshot().Tasks())
	assert.False(t, tr.CanUndo())

	require.NoError(t, tr.RemoveArchived(ctx, "k1"))
	require.NoError(t, tr.RemoveArchived(ctx, "k1"))
	assert.Empty(t, tr.Snapshot().Tasks())
	assert.False(t, tr.CanUndo())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())
}

func TestTracker_RemoveArchivedIf(t *testing.T) {
	ctx := context.Background()
	tr, repo, _ := newTestTracker(t)
	topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Health"})
	require.NoError(t, err)
	run, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Run"})
	require.NoError(t, err)

	pending := func(task board.Task) bool { return !task.Completed }

	_, err = tr.ToggleTask(ctx, run.ID)
	require.NoError(t, err)
	ok, err := tr.RemoveArchivedIf(ctx, run.ID, pending)
	require.NoError(t, err)
	assert.False(t, ok)
	_, live := tr.Snapshot().Task(run.ID)
	assert.True(t, live)

	_, err = tr.ToggleTask(ctx, run.ID)
	require.NoError(t, err)
	ok, err = tr.RemoveArchivedIf(ctx, run.ID, pending)
	require.NoError(t, err)
	assert.True(t, ok)
	_, live = tr.Snapshot().Task(run.ID)
	assert.False(t, live)
	assertRepoMatchesBoard(t, repo, tr.Snapshot())

	ok, err = tr.RemoveArchivedIf(ctx, run.ID, pending)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTracker_UndoAfterArchival(t *testing.T) {
	ctx := context.Background()
	tr, repo, _ := newTestTracker(t)
	topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Health"})
	require.NoError(t, err)
	run, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Run"})
	require.NoError(t, err)
	_, err = tr.ToggleTask(ctx, run.ID)
	require.NoError(t, err)
	require.NoError(t, tr.RemoveArchived(ctx, run.ID))

	// The toggle's task is gone: undo fails but still moves the action.
	desc, ok, err := tr.Undo(ctx)
	assert.True(t, ok)
	assert.Equal(t, "Complete task", desc)
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
	assert.True(t, tr.CanUndo())
	assert.Equal(t, `Create task "Run"`, tr.DescribeLastUndo())
	assert.True(t, tr.CanRedo())
	assert.Equal(t, "Complete task", tr.DescribeNextRedo())

	counted, _ := tr.Snapshot().Topic(topic.ID)
	assert.Equal(t, 1, counted.CompletedTasks)

	// Redo fails the same way and moves it back.
	desc, ok, err = tr.Redo(ctx)
	assert.True(t, ok)
	assert.Equal(t, "Complete task", desc)
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
	assert.False(t, tr.CanRedo())
	assert.Equal(t, "Complete task", tr.DescribeLastUndo())

	// Undoing past it: the create's removal is a no-op, then the topic goes.
	_, _, err = tr.Undo(ctx)
	require.Error(t, err)
	_, _, err = tr.Undo(ctx)
	require.NoError(t, err)
	_, _, err = tr.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, tr.CanUndo())
	assert.Empty(t, tr.Snapshot().Topics())
	assertRepoMatchesBoard(t, repo, tr.Snapshot())
}

// failingTopicRepo fails every topic update once armed.
type failingTopicRepo struct {
	*memory.EntityRepository
	armed bool
}

var errTopicWrite = errors.New("topic write failed")

func (r *failingTopicRepo) UpdateTopic(ctx context.Context, t board.Topic) error {
	if r.armed {
		return errTopicWrite
	}
	return r.EntityRepository.UpdateTopic(ctx, t)
}

func TestTracker_ToggleCountFailureRestoresTask(t *testing.T) {
	ctx := context.Background()
	repo := &failingTopicRepo{EntityRepository: memory.NewEntityRepository()}
	tr := NewTracker(repo, WithClock(&fakeClock{now: anchor}))
	topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Health"})
	require.NoError(t, err)
	run, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Run"})
	require.NoError(t, err)
	before := tr.Snapshot()

	repo.armed = true
	_, err = tr.ToggleTask(ctx, run.ID)
	require.ErrorIs(t, err, errTopicWrite)

	assertSameBoard(t, before, tr.Snapshot())
	assertRepoMatchesBoard(t, repo.EntityRepository, tr.Snapshot())
	task, _ := tr.Snapshot().Task(run.ID)
	assert.False(t, task.Completed)
	assert.Equal(t, `Create task "Run"`, tr.DescribeLastUndo())
}

func TestTracker_HistoryCapacity(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEntityRepository()
	tr := NewTracker(repo, WithHistoryCapacity(3))
	for i := range 5 {
		_, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: fmt.Sprintf("T%d", i)})
		require.NoError(t, err)
	}
	undone := 0
	for tr.CanUndo() {
		_, _, err := tr.Undo(ctx)
		require.NoError(t, err)
		undone++
	}
	assert.Equal(t, 3, undone)
	assert.Len(t, tr.Snapshot().Topics(), 2)

	h := tr.History()
	assert.False(t, h.CanUndo)
	assert.True(t, h.CanRedo)
	assert.Equal(t, `Create topic "T2"`, h.NextRedo)
}

func TestTracker_Buckets(t *testing.T) {
	ctx := context.Background()
	tr, _, clock := newTestTracker(t)
	topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Work"})
	require.NoError(t, err)
	old, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Old"})
	require.NoError(t, err)
	clock.Advance(4 * 24 * time.Hour)
	fresh, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Fresh"})
	require.NoError(t, err)

	buckets := tr.Buckets(clock.now)
	assert.Equal(t, []board.Task{fresh}, buckets.Pending.Fresh)
	assert.Equal(t, []board.Task{old}, buckets.Pending.Stale)
	assert.Empty(t, buckets.Completed.Recent)
}

// Undoing every action returns to the empty board and redoing every
// action reproduces the final one, repository included.
func TestTracker_UndoRedoProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("undo all then redo all", prop.ForAll(
		func(ops []int) bool {
			ctx := context.Background()
			tr, repo, clock := newTestTracker(t)
			topic, err := tr.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Root"})
			if err != nil {
				return false
			}
			var tasks []string
			for i, op := range ops {
				clock.Advance(time.Hour)
				switch {
				case op == 0 || len(tasks) == 0:
					task, err := tr.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: fmt.Sprintf("task %d", i)})
					if err != nil {
						return false
					}
					tasks = append(tasks, task.ID)
				case op == 1:
					if _, err := tr.ToggleTask(ctx, tasks[i%len(tasks)]); err != nil {
						return false
					}
				case op == 2:
					if _, err := tr.EditTask(ctx, dto.EditTaskRequest{ID: tasks[i%len(tasks)], Title: fmt.Sprintf("edit %d", i)}); err != nil {
						return false
					}
				default:
					if err := tr.UpdateBio(ctx, dto.UpdateBioRequest{TopicID: topic.ID, Bio: fmt.Sprintf("bio %d", i)}); err != nil {
						return false
					}
				}
			}

			final := tr.Snapshot()
			for tr.CanUndo() {
				if _, _, err := tr.Undo(ctx); err != nil {
					return false
				}
			}
			if len(tr.Snapshot().Topics()) != 0 {
				return false
			}
			for tr.CanRedo() {
				if _, _, err := tr.Redo(ctx); err != nil {
					return false
				}
			}
			got := tr.Snapshot()
			repoTasks, _ := repo.ListTasks(ctx)
			return assert.ObjectsAreEqual(final.Topics(), got.Topics()) &&
				assert.ObjectsAreEqual(final.Tasks(), got.Tasks()) &&
				assert.ObjectsAreEqual(final.Tasks(), repoTasks)
		},
		gen.SliceOfN(30, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
