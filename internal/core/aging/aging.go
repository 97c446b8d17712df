// Package aging classifies tasks by elapsed calendar days.
//
// Ages are counted in calendar-day boundaries (day starts in now's
// location), not in raw 24h periods: a task created at 23:50 is one day
// old ten minutes later. The classifier is pure; it never mutates its
// inputs and moving tasks into the archive is left to the caller.
package aging

import (
	"fmt"
	"time"

	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/timeposition"
)

const (
	// StaleAfterDays is the age at which an incomplete task becomes stale.
	StaleAfterDays = 3
	// DoneAfterDays is the age since completion at which a completed task
	// becomes old and due for archiving.
	DoneAfterDays = 7
)

// State is the bucket a live task falls into at a given instant.
type State string

const (
	StateFresh           State = "fresh"
	StateStale           State = "stale"
	StateCompletedRecent State = "completed_recent"
	StateCompletedOld    State = "completed_old"
)

// PendingPartition splits incomplete tasks.
type PendingPartition struct {
	Fresh []board.Task `json:"fresh"`
	Stale []board.Task `json:"stale"`
}

// CompletedPartition splits completed tasks.
type CompletedPartition struct {
	Recent []board.Task `json:"recent"`
	Old    []board.Task `json:"old"`
}

// AgeInDays returns the calendar days elapsed since the task was created.
// A future CreatedAt yields a negative age.
func AgeInDays(task board.Task, now time.Time) int {
	return timeposition.CalendarDaysBetween(task.CreatedAt, now)
}

// CompletedAgeInDays returns the calendar days elapsed since completion.
// ok is false when the task carries no completion time.
func CompletedAgeInDays(task board.Task, now time.Time) (days int, ok bool) {
	if task.CompletedAt == nil {
		return 0, false
	}
	return timeposition.CalendarDaysBetween(*task.CompletedAt, now), true
}

// IsStale reports whether an incomplete task has reached StaleAfterDays.
func IsStale(task board.Task, now time.Time) bool {
	if task.Completed {
		return false
	}
	return AgeInDays(task, now) >= StaleAfterDays
}

// IsOldCompleted reports whether a completed task was completed at least
// DoneAfterDays ago.
func IsOldCompleted(task board.Task, now time.Time) bool {
	if !task.Completed {
		return false
	}
	days, ok := CompletedAgeInDays(task, now)
	return ok && days >= DoneAfterDays
}

// Classify returns the task's current bucket.
func Classify(task board.Task, now time.Time) State {
	switch {
	case task.Completed && IsOldCompleted(task, now):
		return StateCompletedOld
	case task.Completed:
		return StateCompletedRecent
	case IsStale(task, now):
		return StateStale
	default:
		return StateFresh
	}
}

// ClassifyPending partitions the incomplete tasks of tasks into fresh and
// stale, preserving order. Completed tasks are skipped.
func ClassifyPending(tasks []board.Task, now time.Time) PendingPartition {
	var p PendingPartition
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if IsStale(t, now) {
			p.Stale = append(p.Stale, t)
		} else {
			p.Fresh = append(p.Fresh, t)
		}
	}
	return p
}

// ClassifyCompleted partitions the completed tasks of tasks into recent
// and old, preserving order. Incomplete tasks are skipped.
func ClassifyCompleted(tasks []board.Task, now time.Time) CompletedPartition {
	var p CompletedPartition
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		if IsOldCompleted(t, now) {
			p.Old = append(p.Old, t)
		} else {
			p.Recent = append(p.Recent, t)
		}
	}
	return p
}

// FormatAge renders an age for display.
func FormatAge(days int) string {
	switch days {
	case 0:
		return "Today"
	case 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
