// Package harmonizer implements the Injection Harmonizer: a discrete-event
// greedy contention simulator that turns a flow table with precomputed
// paths into per-flow steady-state injection delay.
package harmonizer

import (
	"fmt"
	"math"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
	"github.com/nocsched/focus-scheduler/pkg/mesh"
)

// Options configures one harmonizer run.
type Options struct {
	// NumRouters is n*n, used to size the 6*n*n reservation table.
	NumRouters int

	// Shrink compresses each flow's iteration count by ceil(counts*shrink)
	// to trade accuracy for run time. Must be in (0, 1]; 1 disables it.
	Shrink float64

	// Verbose enables a progress callback fired every ProgressEvery main
	// loop iterations (scheduler_verbose in spec terms).
	Verbose       bool
	ProgressEvery int
	OnProgress    func(iteration int)
}

// state holds the 6*n*n (grab_start, grab_end) reservation records.
type state struct {
	grabStart []int
	grabEnd   []int
}

func newState(numChannels int) *state {
	return &state{
		grabStart: make([]int, numChannels),
		grabEnd:   make([]int, numChannels),
	}
}

// Run simulates contention over table's precomputed paths and fills in
// IssueTime, Delay, and IsBound for every flow in place.
func Run(table flowtable.Table, opts Options) error {
	if opts.NumRouters <= 0 {
		return fmt.Errorf("harmonizer: NumRouters must be positive, got %d", opts.NumRouters)
	}
	shrink := opts.Shrink
	if shrink <= 0 || shrink > 1 {
		return fmt.Errorf("harmonizer: Shrink must be in (0, 1], got %v", shrink)
	}

	n := len(table)
	if n == 0 {
		return nil
	}

	st := newState(opts.NumRouters * 6)
	countUsed := make([]int, n)
	shrinkCount := make([]int, n)
	unsolved := make([]bool, n)
	pathChannels := make([][]int, n)

	for i := range table {
		used := table[i].Counts
		if shrink < 1 {
			used = int(math.Ceil(float64(table[i].Counts) * shrink))
			if used < 1 {
				used = 1
			}
		}
		countUsed[i] = used
		shrinkCount[i] = used
		unsolved[i] = true

		chans := make([]int, len(table[i].Path))
		for k, res := range table[i].Path {
			chans[k] = mesh.Channel(res.RouterID, res.Port)
		}
		pathChannels[i] = chans
	}

	iteration := 0
	for anyUnsolved(unsolved) {
		i := selectSmallestIssueTime(table, unsolved)
		flow := &table[i]
		channels := pathChannels[i]

		waitUntil := 0
		for _, c := range channels {
			if st.grabEnd[c] > waitUntil {
				waitUntil = st.grabEnd[c]
			}
		}

		if flow.IssueTime >= waitUntil {
			completion := 0
			for k, c := range channels {
				end := flow.IssueTime + flow.Flit + k + 1
				st.grabEnd[c] = end
				st.grabStart[c] = flow.IssueTime
				if end > completion {
					completion = end
				}
			}

			remainCount := countUsed[i]
			countUsed[i] = remainCount - 1
			if remainCount <= 0 {
				unsolved[i] = false
			} else {
				consumed := shrinkCount[i] - countUsed[i]
				delta := float64(completion) - float64(consumed*flow.Interval)
				if delta < 0 {
					delta = 0
				}
				flow.Delay += delta
				flow.IssueTime += flow.Interval
			}
		} else {
			flow.IssueTime = waitUntil
		}

		iteration++
		if opts.Verbose && opts.ProgressEvery > 0 && iteration%opts.ProgressEvery == 0 && opts.OnProgress != nil {
			opts.OnProgress(iteration)
		}
	}

	for i := range table {
		table[i].Delay /= float64(table[i].Counts)
		table[i].IsBound = table[i].Delay > 0
		if shrinkCount[i] != table[i].Counts {
			table[i].IssueTime = int(float64(table[i].IssueTime) * float64(table[i].Counts) / float64(shrinkCount[i]))
		}
	}

	return nil
}

func anyUnsolved(unsolved []bool) bool {
	for _, u := range unsolved {
		if u {
			return true
		}
	}
	return false
}

// selectSmallestIssueTime returns the index of the unsolved flow with the
// smallest IssueTime, ties broken by stable (lowest) row index.
func selectSmallestIssueTime(table flowtable.Table, unsolved []bool) int {
	best := -1
	for i, u := range unsolved {
		if !u {
			continue
		}
		if best == -1 || table[i].IssueTime < table[best].IssueTime {
			best = i
		}
	}
	return best
}
