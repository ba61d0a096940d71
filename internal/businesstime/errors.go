package businesstime

import (
	"errors"
	"fmt"

	"github.com/username/workdays-api/internal/calendar"
)

const (
	// MaxDays bounds the day phase to about a century of business days
	MaxDays = 100 * 365

	// MaxHours keeps the hour phase well inside time.Duration range
	MaxHours = MaxDays * 24
)

var (
	// ErrInvalidParameters is the parent of every *ParameterError
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrIterationLimit means the holiday data left no business day in reach
	ErrIterationLimit = calendar.ErrIterationLimit
)

// ParameterError describes a rejected day/hour/date argument
type ParameterError struct {
	Field   string
	Message string
}

func (e *ParameterError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrInvalidParameters
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameters
}

// ValidateParameters rejects negative or oversized counts and a request that asks for nothing
func ValidateParameters(days, hours int) error {
	if days < 0 {
		return &ParameterError{Field: "days", Message: "parameter 'days' must be a non-negative integer"}
	}
	if hours < 0 {
		return &ParameterError{Field: "hours", Message: "parameter 'hours' must be a non-negative integer"}
	}
	if days > MaxDays {
		return &ParameterError{Field: "days", Message: fmt.Sprintf("parameter 'days' must not exceed %d", MaxDays)}
	}
	if hours > MaxHours {
		return &ParameterError{Field: "hours", Message: fmt.Sprintf("parameter 'hours' must not exceed %d", MaxHours)}
	}
	if days == 0 && hours == 0 {
		return &ParameterError{Message: "at least one of 'days' or 'hours' must be positive"}
	}
	return nil
}
