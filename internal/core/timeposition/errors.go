// Package timeposition defines domain-specific errors
package timeposition

import "errors"

var (
	ErrInvalidWeek = errors.New("week must be between 1 and 4")
	ErrInvalidDay  = errors.New("day must be between 1 and 7")
)
