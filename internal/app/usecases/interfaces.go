package usecases

import (
	"context"
	"time"

	"github.com/taskflow/taskflow/internal/core/board"
)

// TopicRepository persists topics
// PRINCIPLES:
// - SRP: Only responsible for topic persistence
// - DIP: Tracker depends on this, adapters implement it
type TopicRepository interface {
	CreateTopic(ctx context.Context, t board.Topic) error
	UpdateTopic(ctx context.Context, t board.Topic) error
	// DeleteTopic removes the topic with its tasks and milestones.
	DeleteTopic(ctx context.Context, id string) error
	ListTopics(ctx context.Context) ([]board.Topic, error)
}

// TaskRepository persists tasks
type TaskRepository interface {
	CreateTask(ctx context.Context, t board.Task) error
	UpdateTask(ctx context.Context, t board.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context) ([]board.Task, error)
}

// MilestoneRepository persists milestones
type MilestoneRepository interface {
	CreateMilestone(ctx context.Context, m board.Milestone) error
	UpdateMilestone(ctx context.Context, m board.Milestone) error
	DeleteMilestone(ctx context.Context, id string) error
	ListMilestones(ctx context.Context) ([]board.Milestone, error)
}

// Repository is the full entity store the tracker needs.
type Repository interface {
	TopicRepository
	TaskRepository
	MilestoneRepository
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(time.Now)
