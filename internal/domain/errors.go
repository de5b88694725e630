package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoMatch means the resolver could not map the request text to any
	// report operation. It is a clarification trigger, not a system fault.
	ErrNoMatch = errors.New("no matching operation")

	// ErrUnavailable marks transient infrastructure failures (database or
	// language-service connectivity, timeouts). The whole request is safe
	// to retry: the core performs no writes.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrDataIntegrity marks a result that violates an expected invariant,
	// e.g. negative stock. Callers degrade the answer instead of failing.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// ValidationError reports a caller-supplied parameter that violates a
// declared constraint. It is surfaced before any database call.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

func NewValidationError(param string, reason string) error {
	return &ValidationError{Param: param, Reason: reason}
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
