package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidInput returns an error wrapping ErrInvalidInput with a message describing the problem.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// CollaboratorError reports a failed storage call made on behalf of an analytics operation.
// Op names the operation that failed; ProjectID and Day are set when the operation was
// scoped to a project or a rollup day.
type CollaboratorError struct {
	Op        string
	ProjectID uuid.UUID
	Day       time.Time
	Err       error
}

// NewCollaboratorError wraps err with the operation name.
func NewCollaboratorError(op string, err error) *CollaboratorError {
	return &CollaboratorError{Op: op, Err: err}
}

// ForProject sets the project the failed operation was scoped to.
func (e *CollaboratorError) ForProject(projectID uuid.UUID) *CollaboratorError {
	e.ProjectID = projectID
	return e
}

// ForDay sets the rollup day the failed operation was scoped to.
func (e *CollaboratorError) ForDay(day time.Time) *CollaboratorError {
	e.Day = day
	return e
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	parts := []string{e.Op}
	if e.ProjectID != uuid.Nil {
		parts = append(parts, "project="+e.ProjectID.String())
	}
	if !e.Day.IsZero() {
		parts = append(parts, "day="+e.Day.Format(time.DateOnly))
	}
	return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Err)
}

// Unwrap returns the underlying storage error for errors.Is/As.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsCollaboratorFailure reports whether err came from a failed storage call.
func IsCollaboratorFailure(err error) bool {
	var collabErr *CollaboratorError
	return errors.As(err, &collabErr)
}
