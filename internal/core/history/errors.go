package history

import "errors"

// Domain errors
var (
	ErrInvalidActionID = errors.New("invalid action ID")
	ErrNilPayload      = errors.New("action payload cannot be nil")
)
