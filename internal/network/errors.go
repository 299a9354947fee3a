package network

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycleInNetwork is returned when a built or hand-made network turns
	// out to contain a directed cycle.
	ErrCycleInNetwork = errors.New("cycle in network")
	// ErrInvalidNetwork is returned for structural problems other than
	// cycles: unknown events, missing or duplicate start/end events,
	// unreachable events.
	ErrInvalidNetwork = errors.New("invalid network")
)

// CycleError lists the events along a detected cycle and the names of the
// real activities on it.
type CycleError struct {
	Events []EventID
	Tasks  []string
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Events))
	for i, id := range e.Events {
		ids[i] = fmt.Sprintf("e%d", int(id))
	}
	msg := fmt.Sprintf("%v: events %s", ErrCycleInNetwork, strings.Join(ids, " -> "))
	if len(e.Tasks) > 0 {
		msg += fmt.Sprintf(" (tasks %s)", strings.Join(e.Tasks, ", "))
	}
	return msg
}

func (e *CycleError) Unwrap() error { return ErrCycleInNetwork }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidNetwork, fmt.Sprintf(format, args...))
}
