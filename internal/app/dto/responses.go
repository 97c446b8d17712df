package dto

import (
	"time"

	"github.com/taskflow/taskflow/internal/core/aging"
	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/internal/core/board"
)

// HistoryResponse reports the outcome of an undo or redo and the state
// of both stacks afterwards.
type HistoryResponse struct {
	Applied     bool   `json:"applied"`
	Description string `json:"description,omitempty"`
	CanUndo     bool   `json:"can_undo"`
	CanRedo     bool   `json:"can_redo"`
	NextUndo    string `json:"next_undo,omitempty"`
	NextRedo    string `json:"next_redo,omitempty"`
}

// BoardResponse is a snapshot of the live board.
type BoardResponse struct {
	Topics     []board.Topic     `json:"topics"`
	Tasks      []board.Task      `json:"tasks"`
	Milestones []board.Milestone `json:"milestones"`
}

// BucketsResponse groups live tasks by age.
type BucketsResponse struct {
	At        time.Time                `json:"at"`
	Pending   aging.PendingPartition   `json:"pending"`
	Completed aging.CompletedPartition `json:"completed"`
}

// SweepResponse summarises one archival sweep.
type SweepResponse struct {
	At      time.Time `json:"at"`
	Stale   int       `json:"stale"`
	Done    int       `json:"done"`
	Skipped int       `json:"skipped,omitempty"`
	Errors  []string  `json:"errors,omitempty"`
}

// ArchiveResponse lists archived records.
type ArchiveResponse struct {
	Records []*archive.Record `json:"records"`
}
