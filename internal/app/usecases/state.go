package usecases

import (
	"context"
	"errors"

	"github.com/taskflow/taskflow/internal/core/board"
)

// writeThrough applies State mutations to the repository first and the
// board second, so a failed write leaves the board untouched. Removing
// a row the repository no longer has still clears it from the board. It lives
// for a single undo or redo and carries that call's context.
type writeThrough struct {
	ctx   context.Context
	repo  Repository
	board *board.Board
}

var _ State = (*writeThrough)(nil)

func (w *writeThrough) InsertTopic(t board.Topic) error {
	if err := w.repo.CreateTopic(w.ctx, t); err != nil {
		return err
	}
	return w.board.InsertTopic(t)
}

func (w *writeThrough) RemoveTopic(id string) error {
	if err := w.repo.DeleteTopic(w.ctx, id); err != nil && !errors.Is(err, board.ErrTopicNotFound) {
		return err
	}
	return w.board.RemoveTopic(id)
}

func (w *writeThrough) ReplaceTopic(t board.Topic) error {
	if err := w.repo.UpdateTopic(w.ctx, t); err != nil {
		return err
	}
	return w.board.ReplaceTopic(t)
}

// SetTopicOrder only touches the board; topic order is not persisted.
func (w *writeThrough) SetTopicOrder(ids []string) {
	w.board.SetTopicOrder(ids)
}

func (w *writeThrough) SetTopicBio(topicID, bio string) error {
	t, ok := w.board.Topic(topicID)
	if !ok {
		return board.ErrTopicNotFound
	}
	t.Bio = bio
	return w.ReplaceTopic(t)
}

func (w *writeThrough) AdjustCompletedCount(topicID string, delta int) error {
	t, ok := w.board.Topic(topicID)
	if !ok {
		return board.ErrTopicNotFound
	}
	t.CompletedTasks = max(0, t.CompletedTasks+delta)
	return w.ReplaceTopic(t)
}

func (w *writeThrough) InsertTask(t board.Task) error {
	if err := w.repo.CreateTask(w.ctx, t); err != nil {
		return err
	}
	return w.board.InsertTask(t)
}

func (w *writeThrough) RemoveTask(id string) error {
	if err := w.repo.DeleteTask(w.ctx, id); err != nil && !errors.Is(err, board.ErrTaskNotFound) {
		return err
	}
	return w.board.RemoveTask(id)
}

func (w *writeThrough) ReplaceTask(t board.Task) error {
	if err := w.repo.UpdateTask(w.ctx, t); err != nil {
		return err
	}
	return w.board.ReplaceTask(t)
}

func (w *writeThrough) InsertMilestone(m board.Milestone) error {
	if err := w.repo.CreateMilestone(w.ctx, m); err != nil {
		return err
	}
	return w.board.InsertMilestone(m)
}

func (w *writeThrough) RemoveMilestone(id string) error {
	if err := w.repo.DeleteMilestone(w.ctx, id); err != nil && !errors.Is(err, board.ErrMilestoneNotFound) {
		return err
	}
	return w.board.RemoveMilestone(id)
}

func (w *writeThrough) ReplaceMilestone(m board.Milestone) error {
	if err := w.repo.UpdateMilestone(w.ctx, m); err != nil {
		return err
	}
	return w.board.ReplaceMilestone(m)
}
