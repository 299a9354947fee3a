// Package notify tells people when a project's schedule moved, on the
// desktop and in Slack.
package notify

import (
	"errors"
	"fmt"
)

// Level grades a notification
type Level int

const (
	LevelInfo     Level = iota // critical path rerouted, duration unchanged
	LevelImproved              // project got shorter
	LevelSlipped               // project got longer
	LevelFailed                // project no longer analyses
)

func (l Level) String() string {
	switch l {
	case LevelImproved:
		return "improved"
	case LevelSlipped:
		return "slipped"
	case LevelFailed:
		return "failed"
	default:
		return "info"
	}
}

// Notification is one message about one project
type Notification struct {
	Title   string
	Message string
	Level   Level
	Project string
	Details []string // critical task names, in path order
}

// Notifier delivers notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier fans a notification out to several notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send tries every notifier and joins their errors
func (m *MultiNotifier) Send(n Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopNotifier drops everything
type NoopNotifier struct{}

func (NoopNotifier) Send(Notification) error { return nil }

// AnalysisFailed builds the notification for a project that stopped
// analysing, e.g. after an edit introduced a cycle.
func AnalysisFailed(project string, err error) Notification {
	return Notification{
		Title:   fmt.Sprintf("%s: analysis failed", project),
		Message: err.Error(),
		Level:   LevelFailed,
		Project: project,
	}
}
