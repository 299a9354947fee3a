package cpa

import (
	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/network"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// Timing holds the schedule window of one activity, measured from the
// project origin.
type Timing struct {
	EarliestStart  timeline.Time     `json:"earliest_start"`
	EarliestFinish timeline.Time     `json:"earliest_finish"`
	LatestStart    timeline.Time     `json:"latest_start"`
	LatestFinish   timeline.Time     `json:"latest_finish"`
	Float          timeline.Duration `json:"float"`
	Critical       bool              `json:"critical"`
}

// TaskTiming is the schedule of a sub-task.
type TaskTiming struct {
	Task     domain.TaskID     `json:"-"`
	Name     string            `json:"name"`
	Duration timeline.Duration `json:"duration"`
	Timing
	Wave int `json:"wave"` // index into Result.Waves
}

// ActivityTiming is the schedule of a single arc, dummies included.
type ActivityTiming struct {
	network.Activity
	Timing
}

// EventTiming holds the earliest and latest occurrence of an event.
type EventTiming struct {
	Event    network.EventID
	Earliest timeline.Time
	Latest   timeline.Time
	Float    timeline.Duration
}

// Wave is a group of tasks sharing the same earliest start. Tasks in a wave
// can run in parallel.
type Wave struct {
	Index    int
	Start    timeline.Time
	Tasks    []domain.TaskID // critical tasks first
	Critical bool            // true if the wave holds a critical task
}
