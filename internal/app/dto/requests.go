// Package dto holds the request and response shapes of the tracker's
// application layer, validated with pkg/validation tags.
package dto

import (
	"time"

	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/internal/core/board"
)

// CreateTopicRequest creates a topic. An empty Icon means board.DefaultIcon.
type CreateTopicRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Icon       string `json:"icon" validate:"omitempty,icon_name"`
	ColorIndex int    `json:"color_index" validate:"color_index"`
}

// EditTopicRequest replaces a topic's name, icon and colour.
type EditTopicRequest struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required,max=200"`
	Icon       string `json:"icon" validate:"required,icon_name"`
	ColorIndex int    `json:"color_index" validate:"color_index"`
}

// UpdateBioRequest replaces a topic's bio. An empty bio clears it.
type UpdateBioRequest struct {
	TopicID string `json:"topic_id" validate:"required"`
	Bio     string `json:"bio" validate:"max=2000"`
}

// ReorderTopicsRequest moves DraggedID into TargetID's position.
type ReorderTopicsRequest struct {
	DraggedID string `json:"dragged_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
}

// CreateTaskRequest adds a task to a topic.
type CreateTaskRequest struct {
	TopicID     string `json:"topic_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// EditTaskRequest replaces a task's title and description.
type EditTaskRequest struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateMilestoneRequest pins a milestone to the topic's current month
// (monthly) or current week (weekly).
type CreateMilestoneRequest struct {
	TopicID string              `json:"topic_id" validate:"required"`
	Title   string              `json:"title" validate:"required,max=200"`
	Kind    board.MilestoneKind `json:"kind" validate:"milestone_kind"`
}

// EditMilestoneRequest renames a milestone.
type EditMilestoneRequest struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"required,max=200"`
}

// ArchiveQuery selects archived records.
type ArchiveQuery struct {
	Kind    archive.Kind `json:"kind,omitempty" validate:"omitempty,archive_kind"`
	TopicID string       `json:"topic_id,omitempty"`
	Limit   int          `json:"limit,omitempty" validate:"min=0,max=1000"`
	Offset  int          `json:"offset,omitempty" validate:"min=0"`
	Since   *time.Time   `json:"since,omitempty"`
	Before  *time.Time   `json:"before,omitempty"`
}

// Filter converts the query to an archive filter.
func (q ArchiveQuery) Filter() archive.Filter {
	return archive.Filter{
		Kind:    q.Kind,
		TopicID: q.TopicID,
		Limit:   q.Limit,
		Offset:  q.Offset,
		Since:   q.Since,
		Before:  q.Before,
	}
}
