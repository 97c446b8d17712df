package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/history"
)

var anchor = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func fixtureBoard() *board.Board {
	done := anchor.Add(48 * time.Hour)
	return board.New(
		[]board.Topic{
			{ID: "health", Name: "Health", Icon: "Heart", CreatedAt: anchor, CompletedTasks: 1, Bio: "move more"},
			{ID: "work", Name: "Work", Icon: "Briefcase", CreatedAt: anchor},
		},
		[]board.Task{
			{ID: "run", Title: "Run", TopicID: "health", CreatedAt: anchor},
			{ID: "swim", Title: "Swim", TopicID: "health", CreatedAt: anchor, Completed: true, CompletedAt: &done},
			{ID: "review", Title: "Review", TopicID: "work", CreatedAt: anchor},
		},
		[]board.Milestone{
			{ID: "m1", Title: "10k", TopicID: "health", CreatedAt: anchor, Kind: board.MilestoneMonthly, Month: 1},
		},
	)
}

func assertSameBoard(t *testing.T, want, got *board.Board) {
	t.Helper()
	assert.Equal(t, want.Topics(), got.Topics())
	assert.Equal(t, want.Tasks(), got.Tasks())
	assert.Equal(t, want.Milestones(), got.Milestones())
}

func TestApplyRedoThenUndo_RestoresBoard(t *testing.T) {
	b := fixtureBoard()
	health, _ := b.Topic("health")
	work, _ := b.Topic("work")
	run, _ := b.Task("run")
	review, _ := b.Task("review")
	m1, _ := b.Milestone("m1")

	renamed := health
	renamed.Name = "Fitness"
	retitled := run
	retitled.Title = "Run 5k"
	completed := run
	completed.Completed = true
	completedAt := anchor.Add(72 * time.Hour)
	completed.CompletedAt = &completedAt
	movedM := m1
	movedM.Title = "Half marathon"

	// Restored entities are appended, so deletions target the last item.
	tests := []struct {
		name    string
		payload history.Payload
	}{
		{"create topic", history.CreateTopic{Topic: board.Topic{ID: "new", Name: "New", Icon: "Star", CreatedAt: anchor}}},
		{"delete topic", history.DeleteTopic{TopicID: "work", Topic: work, Tasks: b.TasksForTopic("work"), Milestones: b.MilestonesForTopic("work")}},
		{"edit topic", history.EditTopic{Updated: renamed, Prior: health}},
		{"reorder topics", history.ReorderTopics{Order: []string{"work", "health"}, PriorOrder: []string{"health", "work"}}},
		{"create task", history.CreateTask{Task: board.Task{ID: "lift", Title: "Lift", TopicID: "work", CreatedAt: anchor}}},
		{"delete task", history.DeleteTask{TaskID: "review", Task: review}},
		{"edit task", history.EditTask{Updated: retitled, Prior: run}},
		{"toggle task", history.ToggleTask{Updated: completed, Prior: run}},
		{"create milestone", history.CreateMilestone{Milestone: board.Milestone{ID: "m2", Title: "Swim 1k", TopicID: "health", CreatedAt: anchor, Kind: board.MilestoneWeekly, Month: 1, Week: 2}}},
		{"delete milestone", history.DeleteMilestone{MilestoneID: "m1", Milestone: m1}},
		{"edit milestone", history.EditMilestone{Updated: movedM, Prior: m1}},
		{"update bio", history.UpdateBio{TopicID: "health", Bio: "run daily", PriorBio: "move more"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := fixtureBoard()
			state := fixtureBoard()
			a := history.NewAction(tt.payload)

			// Creation payloads start from a board without the entity.
			if a.Kind().IsCreation() {
				require.NoError(t, ApplyRedo(state, a))
				original = state.Clone()
				require.NoError(t, ApplyUndo(state, a))
				require.NoError(t, ApplyRedo(state, a))
				assertSameBoard(t, original, state)
				return
			}

			require.NoError(t, ApplyRedo(state, a))
			after := state.Clone()
			require.NoError(t, ApplyUndo(state, a))
			assertSameBoard(t, original, state)
			require.NoError(t, ApplyRedo(state, a))
			assertSameBoard(t, after, state)
		})
	}
}

func TestApplyUndo_ToggleAdjustsCount(t *testing.T) {
	b := fixtureBoard()
	run, _ := b.Task("run")
	completed := run
	completed.Completed = true
	a := history.NewAction(history.ToggleTask{Updated: completed, Prior: run})

	require.NoError(t, ApplyRedo(b, a))
	topic, _ := b.Topic("health")
	assert.Equal(t, 2, topic.CompletedTasks)

	require.NoError(t, ApplyUndo(b, a))
	topic, _ = b.Topic("health")
	assert.Equal(t, 1, topic.CompletedTasks)
}

func TestApplyUndo_ToggleClampsAtZero(t *testing.T) {
	b := fixtureBoard()
	require.NoError(t, b.AdjustCompletedCount("health", -5))
	swim, _ := b.Task("swim")
	reopened := swim
	reopened.Completed = false
	reopened.CompletedAt = nil

	a := history.NewAction(history.ToggleTask{Updated: reopened, Prior: swim})
	require.NoError(t, ApplyRedo(b, a))
	topic, _ := b.Topic("health")
	assert.Equal(t, 0, topic.CompletedTasks)
}

func TestApplyUndo_ToggleWithoutTopic(t *testing.T) {
	orphan := board.Task{ID: "orphan", Title: "Orphan", TopicID: "gone", CreatedAt: anchor}
	b := board.New(nil, []board.Task{orphan}, nil)
	done := orphan
	done.Completed = true

	a := history.NewAction(history.ToggleTask{Updated: done, Prior: orphan})
	require.NoError(t, ApplyRedo(b, a))
	got, _ := b.Task("orphan")
	assert.True(t, got.Completed)
}

func TestApplyUndo_MissingEntities(t *testing.T) {
	b := fixtureBoard()

	t.Run("removing an archived task is a no-op", func(t *testing.T) {
		a := history.NewAction(history.CreateTask{Task: board.Task{ID: "archived", Title: "x", TopicID: "health"}})
		assert.NoError(t, ApplyUndo(b, a))
	})

	t.Run("replacing a missing task fails", func(t *testing.T) {
		ghost := board.Task{ID: "ghost", Title: "Ghost", TopicID: "health"}
		a := history.NewAction(history.EditTask{Updated: ghost, Prior: ghost})
		err := ApplyUndo(b, a)
		assert.ErrorIs(t, err, board.ErrTaskNotFound)
		assert.Contains(t, err.Error(), "undo edit_task")
	})

	t.Run("restoring an existing topic fails", func(t *testing.T) {
		health, _ := b.Topic("health")
		a := history.NewAction(history.DeleteTopic{TopicID: "health", Topic: health})
		assert.ErrorIs(t, ApplyUndo(b, a), board.ErrDuplicateTopic)
	})
}

func TestApplyRedo_DeleteTopicCascades(t *testing.T) {
	b := fixtureBoard()
	health, _ := b.Topic("health")
	a := history.NewAction(history.DeleteTopic{TopicID: "health", Topic: health})

	require.NoError(t, ApplyRedo(b, a))
	assert.Empty(t, b.TasksForTopic("health"))
	assert.Empty(t, b.MilestonesForTopic("health"))
}

func TestApply_UnknownPayloadPanics(t *testing.T) {
	a := history.Action{ID: "x", Timestamp: anchor}
	assert.Panics(t, func() { _ = ApplyUndo(board.New(nil, nil, nil), a) })
	assert.Panics(t, func() { _ = ApplyRedo(board.New(nil, nil, nil), a) })
}
