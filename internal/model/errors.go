package model

import (
	"errors"
	"fmt"
)

// Attribution error taxonomy. Input errors are the caller's fault and map to
// 4xx-style responses; ErrModelUnavailable maps to 5xx.
var (
	ErrInvalidContextFormat = errors.New("invalid context format")
	ErrEmptyContext         = errors.New("empty context")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrEmptyResponse        = errors.New("empty response")
	ErrModelUnavailable     = errors.New("embedding model unavailable")
)

// ModelUnavailableError reports that the embedding backend could not be
// loaded or failed to compute embeddings
type ModelUnavailableError struct {
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	if e.Cause == nil {
		return ErrModelUnavailable.Error()
	}
	return fmt.Sprintf("%s: %v", ErrModelUnavailable, e.Cause)
}

// Unwrap returns the root cause
func (e *ModelUnavailableError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrModelUnavailable) match any ModelUnavailableError
func (e *ModelUnavailableError) Is(target error) bool {
	return target == ErrModelUnavailable
}

// IsInputError reports whether err was caused by bad caller input or
// configuration rather than by backend unavailability
func IsInputError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrModelUnavailable):
		return false
	case errors.Is(err, ErrInvalidContextFormat),
		errors.Is(err, ErrEmptyContext),
		errors.Is(err, ErrInvalidConfiguration),
		errors.Is(err, ErrEmptyResponse):
		return true
	default:
		return false
	}
}
