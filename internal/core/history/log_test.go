package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/core/board"
)

func topicAction(name string) Action {
	return NewAction(CreateTopic{Topic: board.Topic{ID: name, Name: name}})
}

func TestLog_Empty(t *testing.T) {
	l := NewLog()

	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())
	assert.Empty(t, l.DescribeLastUndo())
	assert.Empty(t, l.DescribeNextRedo())

	_, ok := l.Undo()
	assert.False(t, ok)
	_, ok = l.Redo()
	assert.False(t, ok)
	assert.Equal(t, 0, l.UndoLen())
	assert.Equal(t, 0, l.RedoLen())
}

func TestLog_UndoRedo(t *testing.T) {
	l := NewLog()
	a := topicAction("Health")
	b := topicAction("Work")
	l.AddAction(a)
	l.AddAction(b)

	got, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, b.ID, got.ID)
	assert.True(t, l.CanRedo())
	assert.Equal(t, `Create topic "Health"`, l.DescribeLastUndo())
	assert.Equal(t, `Create topic "Work"`, l.DescribeNextRedo())

	got, ok = l.Redo()
	require.True(t, ok)
	assert.Equal(t, b.ID, got.ID)
	assert.False(t, l.CanRedo())
	assert.Equal(t, 2, l.UndoLen())
}

func TestLog_AddClearsRedo(t *testing.T) {
	l := NewLog()
	l.AddAction(topicAction("a"))
	l.AddAction(topicAction("b"))
	l.Undo()
	l.Undo()
	require.Equal(t, 2, l.RedoLen())

	l.AddAction(topicAction("c"))
	assert.Equal(t, 0, l.RedoLen())
	assert.False(t, l.CanRedo())
	assert.Equal(t, 1, l.UndoLen())
}

func TestLog_CapacityEvictsOldest(t *testing.T) {
	var evicted []string
	l := NewLog(WithEvictionHook(func(a Action) {
		evicted = append(evicted, a.Payload.(CreateTopic).Topic.Name)
	}))

	for i := 1; i <= 60; i++ {
		l.AddAction(topicAction(fmt.Sprintf("t%d", i)))
	}

	actions := l.UndoActions()
	require.Len(t, actions, DefaultCapacity)
	assert.Equal(t, "t11", actions[0].Payload.(CreateTopic).Topic.Name)
	assert.Equal(t, "t60", actions[len(actions)-1].Payload.(CreateTopic).Topic.Name)
	assert.Len(t, evicted, 10)
	assert.Equal(t, "t1", evicted[0])
	assert.Equal(t, "t10", evicted[9])
}

func TestLog_WithCapacity(t *testing.T) {
	l := NewLog(WithCapacity(3))
	assert.Equal(t, 3, l.Capacity())
	for i := 0; i < 5; i++ {
		l.AddAction(topicAction(fmt.Sprintf("t%d", i)))
	}
	assert.Equal(t, 3, l.UndoLen())

	assert.Equal(t, DefaultCapacity, NewLog(WithCapacity(0)).Capacity())
	assert.Equal(t, DefaultCapacity, NewLog(WithCapacity(-4)).Capacity())
}

func TestLog_Clear(t *testing.T) {
	l := NewLog()
	l.AddAction(topicAction("a"))
	l.AddAction(topicAction("b"))
	l.Undo()
	l.Clear()
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())
	assert.Empty(t, l.RedoActions())
}

func TestLog_ConcurrentAccess(t *testing.T) {
	l := NewLog(WithCapacity(10))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.AddAction(topicAction(fmt.Sprintf("%d-%d", i, j)))
				l.Undo()
				l.Redo()
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, l.UndoLen(), 10)
	assert.LessOrEqual(t, l.RedoLen(), 10)
}

func TestAction_Validate(t *testing.T) {
	a := topicAction("x")
	assert.NoError(t, a.Validate())
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.Equal(t, KindCreateTopic, a.Kind())

	assert.ErrorIs(t, Action{Payload: CreateTopic{}}.Validate(), ErrInvalidActionID)
	assert.ErrorIs(t, Action{ID: "x"}.Validate(), ErrNilPayload)
	assert.Equal(t, Kind(""), Action{}.Kind())
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 12)

	creations := 0
	for _, k := range kinds {
		if k.IsCreation() {
			creations++
		}
	}
	assert.Equal(t, 3, creations)
}

func TestLogProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("n undos followed by n redos restore the undo stack", prop.ForAll(
		func(pushes, n int) bool {
			l := NewLog(WithCapacity(20))
			for i := 0; i < pushes; i++ {
				l.AddAction(topicAction(fmt.Sprintf("t%d", i)))
			}
			before := ids(l.UndoActions())
			for i := 0; i < n; i++ {
				l.Undo()
			}
			for i := 0; i < n; i++ {
				l.Redo()
			}
			return fmt.Sprint(before) == fmt.Sprint(ids(l.UndoActions())) && l.RedoLen() == 0
		},
		gen.IntRange(0, 40),
		gen.IntRange(0, 40),
	))

	properties.Property("stacks never exceed capacity and redo empties on push", prop.ForAll(
		func(ops []int) bool {
			l := NewLog(WithCapacity(5))
			for i, op := range ops {
				switch op {
				case 0:
					l.AddAction(topicAction(fmt.Sprintf("t%d", i)))
					if l.RedoLen() != 0 {
						return false
					}
				case 1:
					l.Undo()
				default:
					l.Redo()
				}
				if l.UndoLen() > 5 || l.RedoLen() > 5 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}

func ids(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}
