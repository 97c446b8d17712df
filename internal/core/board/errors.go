// Package board defines domain-specific errors
package board

import "errors"

// Domain errors - defined once, used everywhere
var (
	// Topic errors
	ErrInvalidTopicID   = errors.New("invalid topic ID")
	ErrInvalidTopicName = errors.New("invalid topic name")
	ErrNegativeCount    = errors.New("completed task count cannot be negative")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrDuplicateTopic   = errors.New("duplicate topic ID")

	// Task errors
	ErrInvalidTaskID    = errors.New("invalid task ID")
	ErrInvalidTaskTitle = errors.New("invalid task title")
	ErrTaskNotFound     = errors.New("task not found")
	ErrDuplicateTask    = errors.New("duplicate task ID")

	// Milestone errors
	ErrInvalidMilestoneID    = errors.New("invalid milestone ID")
	ErrInvalidMilestoneTitle = errors.New("invalid milestone title")
	ErrInvalidMilestoneKind  = errors.New("milestone kind must be monthly or weekly")
	ErrInvalidMilestoneSlot  = errors.New("invalid milestone month/week")
	ErrMilestoneNotFound     = errors.New("milestone not found")
	ErrDuplicateMilestone    = errors.New("duplicate milestone ID")
)
