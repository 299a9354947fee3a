package notify

import (
	"fmt"
	"slices"

	"github.com/hochfrequenz/critpath/internal/timeline"
)

// Summary is the part of an analysis that notifications compare
type Summary struct {
	Duration timeline.Duration
	Critical []string
}

// CriticalPathChanged builds the notification for a project whose analysis
// went from prev to next. It reports false when nothing worth telling
// changed, including when there is no previous analysis.
func CriticalPathChanged(project string, prev *Summary, next Summary) (Notification, bool) {
	if prev == nil {
		return Notification{}, false
	}
	durationChanged := prev.Duration != next.Duration
	criticalChanged := !slices.Equal(prev.Critical, next.Critical)
	if !durationChanged && !criticalChanged {
		return Notification{}, false
	}

	n := Notification{
		Project: project,
		Details: next.Critical,
		Level:   LevelInfo,
	}
	switch next.Duration.Compare(prev.Duration) {
	case 1:
		delta, _ := next.Duration.Sub(prev.Duration)
		n.Level = LevelSlipped
		n.Title = fmt.Sprintf("%s slipped by %s", project, delta)
	case -1:
		delta, _ := prev.Duration.Sub(next.Duration)
		n.Level = LevelImproved
		n.Title = fmt.Sprintf("%s gained %s", project, delta)
	default:
		n.Title = fmt.Sprintf("%s: critical path changed", project)
	}
	n.Message = fmt.Sprintf("Project duration %s (was %s)", next.Duration, prev.Duration)
	return n, true
}
