// Package archive provides the immutable records a task becomes once it
// ages out of the board, and the persistence interface for them.
// Zero external dependencies.
package archive

import (
	"time"

	"github.com/taskflow/taskflow/internal/core/board"
)

// UnknownTopic is recorded as the topic name when the owning topic no
// longer exists at archive time.
const UnknownTopic = "Unknown Topic"

// Kind distinguishes why a task was archived.
type Kind string

const (
	KindStale Kind = "stale"
	KindDone  Kind = "done"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindStale || k == KindDone
}

// Record is an archived task. Records are facts: once saved they are
// never reclassified or edited. TopicName is captured at archive time so
// later renames or deletions of the topic do not change history.
type Record struct {
	ID             string     `json:"id" msgpack:"id"`
	Kind           Kind       `json:"kind" msgpack:"kind"`
	OriginalTaskID string     `json:"original_task_id" msgpack:"original_task_id"`
	Title          string     `json:"title" msgpack:"title"`
	TopicID        string     `json:"topic_id" msgpack:"topic_id"`
	TopicName      string     `json:"topic_name" msgpack:"topic_name"`
	CreatedAt      time.Time  `json:"created_at" msgpack:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" msgpack:"completed_at,omitempty"`
	ArchivedAt     time.Time  `json:"archived_at" msgpack:"archived_at"`
}

// StaleRecord is the typed view of a stale archive entry.
type StaleRecord struct {
	ID             string    `json:"id"`
	OriginalTaskID string    `json:"original_task_id"`
	Title          string    `json:"title"`
	TopicID        string    `json:"topic_id"`
	TopicName      string    `json:"topic_name"`
	CreatedAt      time.Time `json:"created_at"`
	StaleDate      time.Time `json:"stale_date"`
}

// DoneRecord is the typed view of a done archive entry.
type DoneRecord struct {
	ID             string    `json:"id"`
	OriginalTaskID string    `json:"original_task_id"`
	Title          string    `json:"title"`
	TopicID        string    `json:"topic_id"`
	TopicName      string    `json:"topic_name"`
	CompletedAt    time.Time `json:"completed_at"`
	ArchivedDate   time.Time `json:"archived_date"`
}

// NewStale builds the record for an incomplete task that went stale.
// An empty topicName is stored as UnknownTopic.
func NewStale(id string, task board.Task, topicName string, at time.Time) *Record {
	return &Record{
		ID:             id,
		Kind:           KindStale,
		OriginalTaskID: task.ID,
		Title:          task.Title,
		TopicID:        task.TopicID,
		TopicName:      orUnknown(topicName),
		CreatedAt:      task.CreatedAt,
		ArchivedAt:     at,
	}
}

// NewDone builds the record for a completed task past its retention.
func NewDone(id string, task board.Task, topicName string, at time.Time) *Record {
	r := &Record{
		ID:             id,
		Kind:           KindDone,
		OriginalTaskID: task.ID,
		Title:          task.Title,
		TopicID:        task.TopicID,
		TopicName:      orUnknown(topicName),
		CreatedAt:      task.CreatedAt,
		ArchivedAt:     at,
	}
	if task.CompletedAt != nil {
		completed := *task.CompletedAt
		r.CompletedAt = &completed
	}
	return r
}

// Validate ensures record integrity
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrInvalidRecordID
	}
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if r.OriginalTaskID == "" {
		return ErrInvalidTaskID
	}
	if r.Kind == KindDone && r.CompletedAt == nil {
		return ErrMissingCompletedAt
	}
	if r.ArchivedAt.IsZero() {
		return ErrMissingArchivedAt
	}
	return nil
}

// AsStale returns the stale view. ok is false for done records.
func (r *Record) AsStale() (StaleRecord, bool) {
	if r.Kind != KindStale {
		return StaleRecord{}, false
	}
	return StaleRecord{
		ID:             r.ID,
		OriginalTaskID: r.OriginalTaskID,
		Title:          r.Title,
		TopicID:        r.TopicID,
		TopicName:      r.TopicName,
		CreatedAt:      r.CreatedAt,
		StaleDate:      r.ArchivedAt,
	}, true
}

// AsDone returns the done view. ok is false for stale records.
func (r *Record) AsDone() (DoneRecord, bool) {
	if r.Kind != KindDone || r.CompletedAt == nil {
		return DoneRecord{}, false
	}
	return DoneRecord{
		ID:             r.ID,
		OriginalTaskID: r.OriginalTaskID,
		Title:          r.Title,
		TopicID:        r.TopicID,
		TopicName:      r.TopicName,
		CompletedAt:    *r.CompletedAt,
		ArchivedDate:   r.ArchivedAt,
	}, true
}

func orUnknown(name string) string {
	if name == "" {
		return UnknownTopic
	}
	return name
}
