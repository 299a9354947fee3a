package cpa

import (
	"sort"

	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// computeWaves groups tasks by their earliest start and records each task's
// wave index. tasks must be in topological order.
func computeWaves(tasks []TaskTiming) []Wave {
	// Group tasks by ES
	groups := make(map[timeline.Time][]int)
	var starts []timeline.Time
	for i, t := range tasks {
		if _, ok := groups[t.EarliestStart]; !ok {
			starts = append(starts, t.EarliestStart)
		}
		groups[t.EarliestStart] = append(groups[t.EarliestStart], i)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	waves := make([]Wave, len(starts))
	for w, start := range starts {
		members := groups[start]

		// Sort critical tasks first within wave
		sort.SliceStable(members, func(a, b int) bool {
			return tasks[members[a]].Critical && !tasks[members[b]].Critical
		})

		wave := Wave{Index: w, Start: start, Tasks: make([]domain.TaskID, len(members))}
		for i, idx := range members {
			tasks[idx].Wave = w
			wave.Tasks[i] = tasks[idx].Task
			if tasks[idx].Critical {
				wave.Critical = true
			}
		}
		waves[w] = wave
	}
	return waves
}
