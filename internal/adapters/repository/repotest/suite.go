// Package repotest holds behaviour suites shared by every repository and
// archive saver implementation.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/app/usecases"
	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/internal/core/board"
)

// Anchor is a fixed instant used for fixture timestamps.
var Anchor = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

// Topic returns a valid topic fixture.
func Topic(id, name string) board.Topic {
	return board.Topic{ID: id, Name: name, Icon: board.DefaultIcon, ColorIndex: 1, CreatedAt: Anchor}
}

// Task returns a valid task fixture.
func Task(id, topicID, title string) board.Task {
	return board.Task{ID: id, TopicID: topicID, Title: title, CreatedAt: Anchor.Add(time.Hour)}
}

// Milestone returns a valid weekly milestone fixture.
func Milestone(id, topicID, title string) board.Milestone {
	return board.Milestone{ID: id, TopicID: topicID, Title: title, Kind: board.MilestoneWeekly, Month: 1, Week: 2, CreatedAt: Anchor}
}

// RunRepository exercises a usecases.Repository. newRepo must return an
// empty repository.
func RunRepository(t *testing.T, newRepo func(t *testing.T) usecases.Repository) {
	ctx := context.Background()

	t.Run("topics keep insertion order", func(t *testing.T) {
		repo := newRepo(t)
		for i, name := range []string{"Health", "Work", "Music"} {
			require.NoError(t, repo.CreateTopic(ctx, Topic(fmt.Sprintf("t%d", i), name)))
		}
		topics, err := repo.ListTopics(ctx)
		require.NoError(t, err)
		require.Len(t, topics, 3)
		assert.Equal(t, []string{"Health", "Work", "Music"}, []string{topics[0].Name, topics[1].Name, topics[2].Name})
		assert.True(t, Anchor.Equal(topics[0].CreatedAt))
	})

	t.Run("update topic", func(t *testing.T) {
		repo := newRepo(t)
		topic := Topic("t1", "Health")
		require.NoError(t, repo.CreateTopic(ctx, topic))

		topic.Name = "Fitness"
		topic.Bio = "Move daily"
		topic.CompletedTasks = 3
		require.NoError(t, repo.UpdateTopic(ctx, topic))

		topics, err := repo.ListTopics(ctx)
		require.NoError(t, err)
		require.Len(t, topics, 1)
		assert.Equal(t, "Fitness", topics[0].Name)
		assert.Equal(t, "Move daily", topics[0].Bio)
		assert.Equal(t, 3, topics[0].CompletedTasks)

		assert.ErrorIs(t, repo.UpdateTopic(ctx, Topic("ghost", "x")), board.ErrTopicNotFound)
	})

	t.Run("delete topic cascades", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateTopic(ctx, Topic("t1", "Health")))
		require.NoError(t, repo.CreateTopic(ctx, Topic("t2", "Work")))
		require.NoError(t, repo.CreateTask(ctx, Task("k1", "t1", "Run")))
		require.NoError(t, repo.CreateTask(ctx, Task("k2", "t2", "Email")))
		require.NoError(t, repo.CreateMilestone(ctx, Milestone("m1", "t1", "10k")))

		require.NoError(t, repo.DeleteTopic(ctx, "t1"))

		tasks, err := repo.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "k2", tasks[0].ID)

		milestones, err := repo.ListMilestones(ctx)
		require.NoError(t, err)
		assert.Empty(t, milestones)

		assert.ErrorIs(t, repo.DeleteTopic(ctx, "t1"), board.ErrTopicNotFound)
	})

	t.Run("task lifecycle", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateTopic(ctx, Topic("t1", "Health")))
		task := Task("k1", "t1", "Run")
		require.NoError(t, repo.CreateTask(ctx, task))

		done := Anchor.Add(48 * time.Hour)
		task.Completed = true
		task.CompletedAt = &done
		task.Description = "5k loop"
		require.NoError(t, repo.UpdateTask(ctx, task))

		tasks, err := repo.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.True(t, tasks[0].Completed)
		require.NotNil(t, tasks[0].CompletedAt)
		assert.True(t, done.Equal(*tasks[0].CompletedAt))
		assert.Equal(t, "5k loop", tasks[0].Description)

		require.NoError(t, repo.DeleteTask(ctx, "k1"))
		assert.ErrorIs(t, repo.DeleteTask(ctx, "k1"), board.ErrTaskNotFound)
		assert.ErrorIs(t, repo.UpdateTask(ctx, task), board.ErrTaskNotFound)
	})

	t.Run("milestone lifecycle", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateTopic(ctx, Topic("t1", "Health")))
		m := Milestone("m1", "t1", "10k")
		require.NoError(t, repo.CreateMilestone(ctx, m))
		assert.Error(t, repo.CreateMilestone(ctx, m), "duplicate id")

		m.Title = "Half marathon"
		m.Order = 2
		require.NoError(t, repo.UpdateMilestone(ctx, m))

		milestones, err := repo.ListMilestones(ctx)
		require.NoError(t, err)
		require.Len(t, milestones, 1)
		assert.Equal(t, "Half marathon", milestones[0].Title)
		assert.Equal(t, 2, milestones[0].Order)
		assert.Equal(t, board.MilestoneWeekly, milestones[0].Kind)
		assert.Equal(t, 2, milestones[0].Week)

		require.NoError(t, repo.DeleteMilestone(ctx, "m1"))
		assert.ErrorIs(t, repo.DeleteMilestone(ctx, "m1"), board.ErrMilestoneNotFound)
	})
}

// StaleRecord returns a valid stale record archived at Anchor+offset.
func StaleRecord(id, topicID string, offset time.Duration) *archive.Record {
	task := board.Task{ID: "task-" + id, Title: "Task " + id, TopicID: topicID, CreatedAt: Anchor}
	return archive.NewStale(id, task, "Topic "+topicID, Anchor.Add(offset))
}

// DoneRecord returns a valid done record archived at Anchor+offset.
func DoneRecord(id, topicID string, offset time.Duration) *archive.Record {
	completed := Anchor.Add(time.Hour)
	task := board.Task{ID: "task-" + id, Title: "Task " + id, TopicID: topicID, CreatedAt: Anchor, Completed: true, CompletedAt: &completed}
	return archive.NewDone(id, task, "Topic "+topicID, Anchor.Add(offset))
}

// RunSaver exercises an archive.Saver. newSaver must return an empty store.
func RunSaver(t *testing.T, newSaver func(t *testing.T) archive.Saver) {
	ctx := context.Background()

	t.Run("save load delete", func(t *testing.T) {
		s := newSaver(t)
		rec := DoneRecord("r1", "t1", time.Hour)
		require.NoError(t, s.Save(ctx, rec))

		loaded, err := s.Load(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, archive.KindDone, loaded.Kind)
		assert.Equal(t, rec.OriginalTaskID, loaded.OriginalTaskID)
		assert.Equal(t, "Topic t1", loaded.TopicName)
		require.NotNil(t, loaded.CompletedAt)
		assert.True(t, rec.CompletedAt.Equal(*loaded.CompletedAt))
		assert.True(t, rec.ArchivedAt.Equal(loaded.ArchivedAt))

		require.NoError(t, s.Delete(ctx, "r1"))
		_, err = s.Load(ctx, "r1")
		assert.ErrorIs(t, err, archive.ErrRecordNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "r1"), archive.ErrRecordNotFound)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		s := newSaver(t)
		assert.Error(t, s.Save(ctx, &archive.Record{ID: "x"}))
	})

	t.Run("list filters and orders newest first", func(t *testing.T) {
		s := newSaver(t)
		require.NoError(t, s.Save(ctx, StaleRecord("a", "t1", 1*time.Hour)))
		require.NoError(t, s.Save(ctx, StaleRecord("b", "t2", 2*time.Hour)))
		require.NoError(t, s.Save(ctx, DoneRecord("c", "t1", 3*time.Hour)))
		require.NoError(t, s.Save(ctx, DoneRecord("d", "t1", 4*time.Hour)))

		all, err := s.List(ctx, archive.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c", "b", "a"}, recordIDs(all))

		stale, err := s.List(ctx, archive.Filter{Kind: archive.KindStale})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, recordIDs(stale))

		topic, err := s.List(ctx, archive.Filter{TopicID: "t1", Kind: archive.KindDone})
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c"}, recordIDs(topic))

		since := Anchor.Add(2 * time.Hour)
		before := Anchor.Add(4 * time.Hour)
		window, err := s.List(ctx, archive.Filter{Since: &since, Before: &before})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b"}, recordIDs(window))

		page, err := s.List(ctx, archive.Filter{Offset: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b"}, recordIDs(page))

		_, err = s.List(ctx, archive.Filter{Limit: -1})
		assert.ErrorIs(t, err, archive.ErrInvalidLimit)
	})

	t.Run("save overwrites by id", func(t *testing.T) {
		s := newSaver(t)
		rec := StaleRecord("a", "t1", time.Hour)
		require.NoError(t, s.Save(ctx, rec))
		rec.TopicName = "Renamed"
		require.NoError(t, s.Save(ctx, rec))

		all, err := s.List(ctx, archive.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Renamed", all[0].TopicName)
	})
}

func recordIDs(records []*archive.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
