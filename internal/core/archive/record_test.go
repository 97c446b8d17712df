package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/core/board"
)

var at = time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)

func TestNewStale(t *testing.T) {
	task := board.Task{ID: "k1", Title: "Run", TopicID: "t1", CreatedAt: at.AddDate(0, 0, -4)}

	r := NewStale("r1", task, "Health", at)
	require.NoError(t, r.Validate())

	s, ok := r.AsStale()
	require.True(t, ok)
	assert.Equal(t, StaleRecord{
		ID: "r1", OriginalTaskID: "k1", Title: "Run", TopicID: "t1", TopicName: "Health",
		CreatedAt: task.CreatedAt, StaleDate: at,
	}, s)

	_, ok = r.AsDone()
	assert.False(t, ok)
}

func TestNewDone(t *testing.T) {
	completed := at.AddDate(0, 0, -8)
	task := board.Task{ID: "k1", Title: "Run", TopicID: "t1", Completed: true, CompletedAt: &completed}

	r := NewDone("r2", task, "", at)
	require.NoError(t, r.Validate())
	assert.Equal(t, UnknownTopic, r.TopicName)

	completed = completed.Add(time.Hour)
	d, ok := r.AsDone()
	require.True(t, ok)
	assert.Equal(t, at.AddDate(0, 0, -8), d.CompletedAt, "record keeps its own copy")
	assert.Equal(t, at, d.ArchivedDate)

	_, ok = r.AsStale()
	assert.False(t, ok)
}

func TestRecord_Validate(t *testing.T) {
	completed := at
	tests := []struct {
		name   string
		record Record
		err    error
	}{
		{"missing id", Record{Kind: KindStale, OriginalTaskID: "k", ArchivedAt: at}, ErrInvalidRecordID},
		{"bad kind", Record{ID: "r", Kind: "lost", OriginalTaskID: "k", ArchivedAt: at}, ErrInvalidKind},
		{"missing task", Record{ID: "r", Kind: KindStale, ArchivedAt: at}, ErrInvalidTaskID},
		{"done without completion", Record{ID: "r", Kind: KindDone, OriginalTaskID: "k", ArchivedAt: at}, ErrMissingCompletedAt},
		{"missing archived", Record{ID: "r", Kind: KindStale, OriginalTaskID: "k"}, ErrMissingArchivedAt},
		{"valid done", Record{ID: "r", Kind: KindDone, OriginalTaskID: "k", CompletedAt: &completed, ArchivedAt: at}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFilter(t *testing.T) {
	before := at.Add(-time.Hour)
	f := Filter{Since: &at, Before: &before}
	assert.ErrorIs(t, f.Validate(), ErrInvalidTimeRange)
	assert.ErrorIs(t, (&Filter{Limit: -1}).Validate(), ErrInvalidLimit)
	assert.ErrorIs(t, (&Filter{Offset: -1}).Validate(), ErrInvalidOffset)
	assert.ErrorIs(t, (&Filter{Kind: "x"}).Validate(), ErrInvalidKind)

	r := &Record{Kind: KindDone, TopicID: "t1", ArchivedAt: at}
	assert.True(t, (&Filter{}).Matches(r))
	assert.True(t, (&Filter{Kind: KindDone, TopicID: "t1"}).Matches(r))
	assert.False(t, (&Filter{Kind: KindStale}).Matches(r))
	assert.False(t, (&Filter{TopicID: "t2"}).Matches(r))
	assert.True(t, (&Filter{Since: &at}).Matches(r))
	assert.False(t, (&Filter{Before: &at}).Matches(r))
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Page(items, Filter{}))
	assert.Equal(t, []int{3, 4}, Page(items, Filter{Offset: 2, Limit: 2}))
	assert.Equal(t, []int{5}, Page(items, Filter{Offset: 4, Limit: 10}))
	assert.Empty(t, Page(items, Filter{Offset: 9}))
}
