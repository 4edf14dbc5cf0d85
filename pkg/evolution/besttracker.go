package evolution

import (
	"math"
	"sync"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
)

// BestTracker is the single point of shared mutation in an evolution run:
// a mutex-guarded (score, trace) cell that only ever improves. It replaces
// the reference implementation's process-wide global best_solution with
// an explicit object passed to every evaluator.
type BestTracker struct {
	mu    sync.RWMutex
	score float64
	trace flowtable.Table
}

// NewBestTracker returns a tracker with no recorded solution yet.
func NewBestTracker() *BestTracker {
	return &BestTracker{score: math.Inf(-1)}
}

// Update records (score, table) if score improves on the current best.
// Safe for concurrent use; this is the only write path.
func (b *BestTracker) Update(score float64, table flowtable.Table) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if score > b.score {
		b.score = score
		b.trace = table.CloneResult()
	}
}

// Best returns the current best-so-far score and a clone of its trace,
// with derived fields (Path, IssueTime, Delay, IsBound) intact.
func (b *BestTracker) Best() (float64, flowtable.Table) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.score, b.trace.CloneResult()
}
