package usecases

import (
	"errors"
	"fmt"

	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/history"
)

// State is the mutation surface undo and redo act on. *board.Board
// implements it directly; the tracker wraps it so every change is also
// written to the repository.
type State interface {
	InsertTopic(t board.Topic) error
	RemoveTopic(id string) error
	ReplaceTopic(t board.Topic) error
	SetTopicOrder(ids []string)
	SetTopicBio(topicID, bio string) error
	AdjustCompletedCount(topicID string, delta int) error

	InsertTask(t board.Task) error
	RemoveTask(id string) error
	ReplaceTask(t board.Task) error

	InsertMilestone(m board.Milestone) error
	RemoveMilestone(id string) error
	ReplaceMilestone(m board.Milestone) error
}

var _ State = (*board.Board)(nil)

// ApplyUndo reverts the effect of a on state.
func ApplyUndo(state State, a history.Action) error {
	var err error
	switch p := a.Payload.(type) {
	case history.CreateTopic:
		err = removed(state.RemoveTopic(p.Topic.ID))
	case history.DeleteTopic:
		err = restoreTopic(state, p)
	case history.EditTopic:
		err = state.ReplaceTopic(p.Prior)
	case history.ReorderTopics:
		state.SetTopicOrder(p.PriorOrder)
	case history.CreateTask:
		err = removed(state.RemoveTask(p.Task.ID))
	case history.DeleteTask:
		err = state.InsertTask(p.Task)
	case history.EditTask:
		err = state.ReplaceTask(p.Prior)
	case history.ToggleTask:
		err = toggleTo(state, p.Prior, p.Updated)
	case history.CreateMilestone:
		err = removed(state.RemoveMilestone(p.Milestone.ID))
	case history.DeleteMilestone:
		err = state.InsertMilestone(p.Milestone)
	case history.EditMilestone:
		err = state.ReplaceMilestone(p.Prior)
	case history.UpdateBio:
		err = state.SetTopicBio(p.TopicID, p.PriorBio)
	default:
		panic(fmt.Sprintf("usecases: undo of unknown action payload %T", a.Payload))
	}
	if err != nil {
		return fmt.Errorf("undo %s: %w", a.Kind(), err)
	}
	return nil
}

// ApplyRedo re-applies the effect of a on state.
func ApplyRedo(state State, a history.Action) error {
	var err error
	switch p := a.Payload.(type) {
	case history.CreateTopic:
		err = state.InsertTopic(p.Topic)
	case history.DeleteTopic:
		err = removed(state.RemoveTopic(p.TopicID))
	case history.EditTopic:
		err = state.ReplaceTopic(p.Updated)
	case history.ReorderTopics:
		state.SetTopicOrder(p.Order)
	case history.CreateTask:
		err = state.InsertTask(p.Task)
	case history.DeleteTask:
		err = removed(state.RemoveTask(p.TaskID))
	case history.EditTask:
		err = state.ReplaceTask(p.Updated)
	case history.ToggleTask:
		err = toggleTo(state, p.Updated, p.Prior)
	case history.CreateMilestone:
		err = state.InsertMilestone(p.Milestone)
	case history.DeleteMilestone:
		err = removed(state.RemoveMilestone(p.MilestoneID))
	case history.EditMilestone:
		err = state.ReplaceMilestone(p.Updated)
	case history.UpdateBio:
		err = state.SetTopicBio(p.TopicID, p.Bio)
	default:
		panic(fmt.Sprintf("usecases: redo of unknown action payload %T", a.Payload))
	}
	if err != nil {
		return fmt.Errorf("redo %s: %w", a.Kind(), err)
	}
	return nil
}

func restoreTopic(state State, p history.DeleteTopic) error {
	if err := state.InsertTopic(p.Topic); err != nil {
		return err
	}
	for _, t := range p.Tasks {
		if err := state.InsertTask(t); err != nil {
			return err
		}
	}
	for _, m := range p.Milestones {
		if err := state.InsertMilestone(m); err != nil {
			return err
		}
	}
	return nil
}

// toggleTo installs to in place of from and moves its topic's completed
// count towards to's completion state. A topic that no longer exists is
// left alone. If the count cannot be written, from is put back so the
// task and the count never disagree.
func toggleTo(state State, to, from board.Task) error {
	if err := state.ReplaceTask(to); err != nil {
		return err
	}
	delta := -1
	if to.Completed {
		delta = 1
	}
	err := state.AdjustCompletedCount(to.TopicID, delta)
	if err == nil || errors.Is(err, board.ErrTopicNotFound) {
		return nil
	}
	if rerr := state.ReplaceTask(from); rerr != nil {
		return errors.Join(err, fmt.Errorf("restore task %s: %w", from.ID, rerr))
	}
	return err
}

// removed treats removal of an entity that is already gone as success;
// tasks can leave the board through archival between an action and its
// reversal.
func removed(err error) error {
	if errors.Is(err, board.ErrTopicNotFound) ||
		errors.Is(err, board.ErrTaskNotFound) ||
		errors.Is(err, board.ErrMilestoneNotFound) {
		return nil
	}
	return err
}
