package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycleDetected is returned when an edit would make the dependency
	// relation cyclic.
	ErrCycleDetected = errors.New("dependency cycle detected")
	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("task not found")
	// ErrAmbiguous is returned by name lookups that match more than one task.
	ErrAmbiguous = errors.New("task name is ambiguous")
	// ErrMalformedModel is returned for structurally invalid input: a root
	// that is not an overall task, an unknown task reference, an empty name.
	ErrMalformedModel = errors.New("malformed model")
)

// CycleError reports the task names along a rejected cycle. The first and
// last entries name the same task.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// LookupError reports a failed lookup by name.
type LookupError struct {
	Name    string
	Matches int
}

func (e *LookupError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("task %q not found", e.Name)
	}
	return fmt.Sprintf("task name %q is ambiguous (%d matches)", e.Name, e.Matches)
}

func (e *LookupError) Unwrap() error {
	if e.Matches == 0 {
		return ErrNotFound
	}
	return ErrAmbiguous
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedModel, fmt.Sprintf(format, args...))
}
