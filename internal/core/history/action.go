package history

import (
	"time"

	"github.com/google/uuid"
)

// Action is one recorded, reversible domain edit. Actions are values;
// nothing in the log mutates them after creation.
type Action struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}

// NewAction stamps payload with a fresh ID and the current time.
func NewAction(p Payload) Action {
	return Action{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Payload:   p,
	}
}

// Kind returns the payload's kind, or "" for an action without payload.
func (a Action) Kind() Kind {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Kind()
}

// Validate ensures action integrity
func (a Action) Validate() error {
	if a.ID == "" {
		return ErrInvalidActionID
	}
	if a.Payload == nil {
		return ErrNilPayload
	}
	return nil
}
