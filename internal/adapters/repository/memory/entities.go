// Package memory provides in-process implementations of the tracker's
// entity repository and archive saver.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/taskflow/taskflow/internal/core/board"
)

// EntityRepository stores topics, tasks and milestones in memory and
// lists them in insertion order.
// PRINCIPLES:
// - KISS: ordered slices behind one RWMutex
// - DIP: implements usecases.Repository
type EntityRepository struct {
	mu         sync.RWMutex
	topics     []board.Topic
	tasks      []board.Task
	milestones []board.Milestone
}

// NewEntityRepository creates an empty repository.
func NewEntityRepository() *EntityRepository {
	return &EntityRepository{}
}

func (r *EntityRepository) CreateTopic(_ context.Context, t board.Topic) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid topic: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.topics, t.ID, topicID) >= 0 {
		return board.ErrDuplicateTopic
	}
	r.topics = append(r.topics, t)
	return nil
}

func (r *EntityRepository) UpdateTopic(_ context.Context, t board.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.topics, t.ID, topicID)
	if i < 0 {
		return board.ErrTopicNotFound
	}
	r.topics[i] = t
	return nil
}

// DeleteTopic removes the topic and cascades to its tasks and milestones.
func (r *EntityRepository) DeleteTopic(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.topics, id, topicID)
	if i < 0 {
		return board.ErrTopicNotFound
	}
	r.topics = slices.Delete(r.topics, i, i+1)
	r.tasks = slices.DeleteFunc(r.tasks, func(t board.Task) bool { return t.TopicID == id })
	r.milestones = slices.DeleteFunc(r.milestones, func(m board.Milestone) bool { return m.TopicID == id })
	return nil
}

func (r *EntityRepository) ListTopics(context.Context) ([]board.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.topics), nil
}

func (r *EntityRepository) CreateTask(_ context.Context, t board.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.topics, t.TopicID, topicID) < 0 {
		return board.ErrTopicNotFound
	}
	if indexOf(r.tasks, t.ID, taskID) >= 0 {
		return board.ErrDuplicateTask
	}
	r.tasks = append(r.tasks, t)
	return nil
}

func (r *EntityRepository) UpdateTask(_ context.Context, t board.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.tasks, t.ID, taskID)
	if i < 0 {
		return board.ErrTaskNotFound
	}
	r.tasks[i] = t
	return nil
}

func (r *EntityRepository) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.tasks, id, taskID)
	if i < 0 {
		return board.ErrTaskNotFound
	}
	r.tasks = slices.Delete(r.tasks, i, i+1)
	return nil
}

func (r *EntityRepository) ListTasks(context.Context) ([]board.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.tasks), nil
}

func (r *EntityRepository) CreateMilestone(_ context.Context, m board.Milestone) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid milestone: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.topics, m.TopicID, topicID) < 0 {
		return board.ErrTopicNotFound
	}
	if indexOf(r.milestones, m.ID, milestoneID) >= 0 {
		return board.ErrDuplicateMilestone
	}
	r.milestones = append(r.milestones, m)
	return nil
}

func (r *EntityRepository) UpdateMilestone(_ context.Context, m board.Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.milestones, m.ID, milestoneID)
	if i < 0 {
		return board.ErrMilestoneNotFound
	}
	r.milestones[i] = m
	return nil
}

func (r *EntityRepository) DeleteMilestone(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.milestones, id, milestoneID)
	if i < 0 {
		return board.ErrMilestoneNotFound
	}
	r.milestones = slices.Delete(r.milestones, i, i+1)
	return nil
}

func (r *EntityRepository) ListMilestones(context.Context) ([]board.Milestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.milestones), nil
}

func topicID(t board.Topic) string         { return t.ID }
func taskID(t board.Task) string           { return t.ID }
func milestoneID(m board.Milestone) string { return m.ID }

func indexOf[T any](items []T, id string, key func(T) string) int {
	return slices.IndexFunc(items, func(v T) bool { return key(v) == id })
}
