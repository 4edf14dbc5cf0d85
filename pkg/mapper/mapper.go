// Package mapper assigns each flow its initial injection schedule before a
// harmonizer run.
package mapper

import (
	"sort"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
)

// Assign sorts table in place by ascending Interval and zeroes every flow's
// IssueTime. Shorter-period flows are processed first by the harmonizer's
// greedy selector, reducing starvation.
func Assign(table flowtable.Table) {
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Interval < table[j].Interval
	})
	for i := range table {
		table[i].IssueTime = 0
	}
}
