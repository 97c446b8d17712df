package archive

import "errors"

// Domain errors - defined once, shared by every Saver implementation
var (
	// Record validation errors
	ErrInvalidRecordID    = errors.New("invalid archive record ID")
	ErrInvalidKind        = errors.New("invalid archive kind")
	ErrInvalidTaskID      = errors.New("invalid original task ID")
	ErrMissingCompletedAt = errors.New("done record requires completed_at")
	ErrMissingArchivedAt  = errors.New("archive record requires archived_at")
	ErrRecordNotFound     = errors.New("archive record not found")

	// Filter validation errors
	ErrInvalidLimit     = errors.New("limit cannot be negative")
	ErrInvalidOffset    = errors.New("offset cannot be negative")
	ErrInvalidTimeRange = errors.New("invalid time range: since is after before")

	// Persistence errors
	ErrSaveFailed   = errors.New("failed to save archive record")
	ErrLoadFailed   = errors.New("failed to load archive record")
	ErrDeleteFailed = errors.New("failed to delete archive record")
)
