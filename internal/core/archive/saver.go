package archive

import (
	"context"
	"time"
)

// Saver persists archive records.
// PRINCIPLES:
// - ISP: four methods, nothing an archive reader does not need
// - DIP: services depend on this interface, adapters implement it
type Saver interface {
	// Save persists a record. Saving an existing ID overwrites it.
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by ID
	Load(ctx context.Context, id string) (*Record, error)

	// List returns records matching the filter, newest ArchivedAt first
	List(ctx context.Context, filter Filter) ([]*Record, error)

	// Delete removes a record by ID
	Delete(ctx context.Context, id string) error
}

// Filter for archive queries. Zero fields match everything; Since and
// Before bound ArchivedAt inclusively and exclusively.
type Filter struct {
	Kind    Kind       `json:"kind,omitempty"`
	TopicID string     `json:"topic_id,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Offset  int        `json:"offset,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
	Before  *time.Time `json:"before,omitempty"`
}

// Validate ensures filter parameters are valid
func (f *Filter) Validate() error {
	if f.Kind != "" && !f.Kind.Valid() {
		return ErrInvalidKind
	}
	if f.Limit < 0 {
		return ErrInvalidLimit
	}
	if f.Offset < 0 {
		return ErrInvalidOffset
	}
	if f.Since != nil && f.Before != nil && f.Since.After(*f.Before) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Matches reports whether r passes the filter's predicates. Limit and
// Offset are not considered.
func (f *Filter) Matches(r *Record) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.TopicID != "" && r.TopicID != f.TopicID {
		return false
	}
	if f.Since != nil && r.ArchivedAt.Before(*f.Since) {
		return false
	}
	if f.Before != nil && !r.ArchivedAt.Before(*f.Before) {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already ordered slice.
func Page[T any](items []T, f Filter) []T {
	if f.Offset >= len(items) {
		return []T{}
	}
	items = items[f.Offset:]
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}
