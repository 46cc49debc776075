package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation indicates invalid user input.
	ErrValidation = errors.New("validation error")
	// ErrPermission indicates that the actor may not perform the operation.
	ErrPermission = errors.New("permission denied")
	// ErrNotFound indicates that the addressed item does not exist or is hidden from the actor.
	ErrNotFound = errors.New("not found")
	// ErrNothingToLog indicates that a template resolved to no usable items.
	ErrNothingToLog = errors.New("no valid foods or workouts found in template")
	// ErrSuspended indicates that the account is banned or timed out.
	ErrSuspended = errors.New("account suspended")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries a message that can be shown to the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// asValidation turns an input check failure into a ValidationError.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Msg: err.Error()}
}

// SuspendedError is returned when a suspended user tries to log in.
type SuspendedError struct {
	Until time.Time
}

func (e *SuspendedError) Error() string {
	return fmt.Sprintf("account suspended until %s", e.Until.Format("2006-01-02 15:04"))
}

func (e *SuspendedError) Is(target error) bool {
	return target == ErrSuspended
}

func notFound(what, name string) error {
	return fmt.Errorf("%s %q: %w", what, name, ErrNotFound)
}

func permissionDenied(msg string) error {
	return fmt.Errorf("%w: %s", ErrPermission, msg)
}
