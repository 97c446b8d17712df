package taskflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/app/dto"
)

func TestRuntime_TrackUndoArchive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	rt := NewRuntime(WithClock(func() time.Time { return now }))
	defer rt.Close()

	topic, err := rt.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Health"})
	require.NoError(t, err)
	_, err = rt.CreateTask(ctx, dto.CreateTaskRequest{TopicID: topic.ID, Title: "Run"})
	require.NoError(t, err)
	assert.Equal(t, `Create task "Run"`, rt.DescribeLastUndo())

	desc, ok, err := rt.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `Create task "Run"`, desc)
	_, _, err = rt.Redo(ctx)
	require.NoError(t, err)

	now = now.AddDate(0, 0, 3)
	res := rt.Sweep(ctx)
	assert.Equal(t, 1, res.Stale)
	assert.Empty(t, rt.Board().Tasks)

	stale, err := rt.Archiver().ListStale(ctx, dto.ArchiveQuery{})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "Health", stale[0].TopicName)
	assert.NoError(t, rt.Ping(ctx))
}

func TestRuntime_ExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	rt := NewRuntime()
	defer rt.Close()

	topic, err := rt.CreateTopic(ctx, dto.CreateTopicRequest{Name: "Code", Icon: "Code"})
	require.NoError(t, err)
	_, err = rt.CreateMilestone(ctx, dto.CreateMilestoneRequest{TopicID: topic.ID, Title: "Ship", Kind: Weekly})
	require.NoError(t, err)

	data, err := rt.Export()
	require.NoError(t, err)
	snap, err := rt.DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snap.Topics, 1)
	assert.Equal(t, "Code", snap.Topics[0].Name)
	assert.True(t, topic.CreatedAt.Equal(snap.Topics[0].CreatedAt))
	require.Len(t, snap.Milestones, 1)
	assert.Equal(t, Weekly, snap.Milestones[0].Kind)
}

func TestRuntime_Sweeper(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()
	assert.Equal(t, time.Minute, rt.Sweeper().Interval())
}

func TestPositionOf(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := PositionOf(time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), anchor)
	assert.Equal(t, Position{Month: 2, Week: 3, Day: 3}, p)
	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), DateOf(p, anchor))
}
