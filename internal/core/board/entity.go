// Package board provides the tracker's domain entities (topics, tasks and
// milestones) and the in-memory Board that holds them.
// Zero external dependencies.
package board

import (
	"time"

	"github.com/taskflow/taskflow/internal/core/timeposition"
)

// DefaultIcon is used when a topic is created without an icon.
const DefaultIcon = "Target"

// Topic is a user-defined goal grouping tasks and milestones. CreatedAt is
// the anchor of the topic's calendar.
type Topic struct {
	ID             string    `json:"id" msgpack:"id"`
	Name           string    `json:"name" msgpack:"name" validate:"required,max=200"`
	ColorIndex     int       `json:"color_index" msgpack:"color_index" validate:"color_index"`
	Icon           string    `json:"icon" msgpack:"icon" validate:"required,icon_name"`
	CreatedAt      time.Time `json:"created_at" msgpack:"created_at"`
	CompletedTasks int       `json:"completed_tasks" msgpack:"completed_tasks" validate:"min=0"`
	Bio            string    `json:"bio,omitempty" msgpack:"bio,omitempty" validate:"max=2000"`
}

// Validate ensures topic integrity
func (t *Topic) Validate() error {
	if t.ID == "" {
		return ErrInvalidTopicID
	}
	if t.Name == "" {
		return ErrInvalidTopicName
	}
	if t.CompletedTasks < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Task is a unit of work inside a topic.
type Task struct {
	ID          string     `json:"id" msgpack:"id"`
	Title       string     `json:"title" msgpack:"title" validate:"required,max=200"`
	Description string     `json:"description" msgpack:"description" validate:"max=2000"`
	TopicID     string     `json:"topic_id" msgpack:"topic_id" validate:"required"`
	MilestoneID string     `json:"milestone_id,omitempty" msgpack:"milestone_id,omitempty"`
	Completed   bool       `json:"completed" msgpack:"completed"`
	CreatedAt   time.Time  `json:"created_at" msgpack:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" msgpack:"completed_at,omitempty"`
	// Completion is the topic-calendar position of CompletedAt.
	Completion *timeposition.Position `json:"completion,omitempty" msgpack:"completion,omitempty"`
}

// Validate ensures task integrity
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrInvalidTaskID
	}
	if t.Title == "" {
		return ErrInvalidTaskTitle
	}
	if t.TopicID == "" {
		return ErrInvalidTopicID
	}
	return nil
}

// SameTask reports whether a and b carry the same values. Timestamps are
// compared as instants, so a task read back from storage in another
// location still matches.
func SameTask(a, b Task) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.TopicID == b.TopicID &&
		a.MilestoneID == b.MilestoneID &&
		a.Completed == b.Completed &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		sameInstant(a.CompletedAt, b.CompletedAt) &&
		samePosition(a.Completion, b.Completion)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func samePosition(a, b *timeposition.Position) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MilestoneKind distinguishes monthly from weekly milestones.
type MilestoneKind string

const (
	MilestoneMonthly MilestoneKind = "monthly"
	MilestoneWeekly  MilestoneKind = "weekly"
)

// Valid reports whether k is a known kind.
func (k MilestoneKind) Valid() bool {
	return k == MilestoneMonthly || k == MilestoneWeekly
}

// Milestone is a monthly or weekly goal marker pinned to a slot of the
// topic's calendar. Week is zero for monthly milestones.
type Milestone struct {
	ID        string        `json:"id" msgpack:"id"`
	Title     string        `json:"title" msgpack:"title" validate:"required,max=200"`
	TopicID   string        `json:"topic_id" msgpack:"topic_id" validate:"required"`
	CreatedAt time.Time     `json:"created_at" msgpack:"created_at"`
	Order     int           `json:"order" msgpack:"order" validate:"min=0"`
	Kind      MilestoneKind `json:"kind" msgpack:"kind" validate:"milestone_kind"`
	Month     int           `json:"month" msgpack:"month" validate:"min=1"`
	Week      int           `json:"week,omitempty" msgpack:"week,omitempty" validate:"min=0,max=4"`
}

// Validate ensures milestone integrity
func (m *Milestone) Validate() error {
	if m.ID == "" {
		return ErrInvalidMilestoneID
	}
	if m.Title == "" {
		return ErrInvalidMilestoneTitle
	}
	if m.TopicID == "" {
		return ErrInvalidTopicID
	}
	if !m.Kind.Valid() {
		return ErrInvalidMilestoneKind
	}
	if m.Month < 1 {
		return ErrInvalidMilestoneSlot
	}
	switch m.Kind {
	case MilestoneWeekly:
		if m.Week < 1 || m.Week > timeposition.WeeksPerMonth {
			return ErrInvalidMilestoneSlot
		}
	case MilestoneMonthly:
		if m.Week != 0 {
			return ErrInvalidMilestoneSlot
		}
	}
	return nil
}

// InSlot reports whether the milestone occupies the given calendar slot.
// week is ignored for monthly milestones.
func (m *Milestone) InSlot(topicID string, kind MilestoneKind, month, week int) bool {
	if m.TopicID != topicID || m.Kind != kind || m.Month != month {
		return false
	}
	return kind == MilestoneMonthly || m.Week == week
}

// PaletteSize is the number of topic colours; ColorIndex ranges over
// [0, PaletteSize).
const PaletteSize = 8

// Icons lists the icon names a topic may use.
var Icons = []string{
	"Target", "BookOpen", "Briefcase", "Heart", "Home", "Dumbbell",
	"Palette", "Code", "Music", "Camera", "Plane", "Star",
}
