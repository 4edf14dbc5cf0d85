// Package genome implements the Individual: one candidate schedule, its
// mutation/crossover operators, and full-pipeline evaluation.
package genome

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
	"github.com/nocsched/focus-scheduler/pkg/harmonizer"
	"github.com/nocsched/focus-scheduler/pkg/mapper"
	"github.com/nocsched/focus-scheduler/pkg/mesh"
	"github.com/nocsched/focus-scheduler/pkg/scoring"
)

// BestTracker receives the trace and score of an evaluated individual. It
// is implemented by pkg/evolution's mutex-guarded tracker; genome depends
// only on this interface to avoid an import cycle.
type BestTracker interface {
	Update(score float64, table flowtable.Table)
}

// EvalConfig bundles the knobs Evaluate needs beyond the genome itself.
type EvalConfig struct {
	Router     *mesh.Router
	Harmonizer harmonizer.Options
	Quantile   float64
	Tracker    BestTracker
}

// Individual is one candidate schedule: a flow table whose rows carry their
// own Intermediate waypoint lists, the mutable genome the search evolves.
type Individual struct {
	Table  flowtable.Table
	NumPEs int
}

// New builds an Individual over an independent clone of base.
func New(base flowtable.Table, numPEs int) *Individual {
	return &Individual{Table: base.Clone(), NumPEs: numPEs}
}

// Clone deep-copies the individual so mutation/crossover never alias rows.
func (ind *Individual) Clone() *Individual {
	return &Individual{Table: ind.Table.Clone(), NumPEs: ind.NumPEs}
}

// Mutate performs k random edits, k in [0, 50): each edit removes a
// waypoint with probability 0.6, else adds one.
func (ind *Individual) Mutate(rng *rand.Rand) {
	if len(ind.Table) == 0 {
		return
	}
	k := rng.Intn(50)
	for e := 0; e < k; e++ {
		if rng.Float64() < 0.6 {
			ind.rmImNode(rng)
		} else {
			ind.addImNode(rng)
		}
	}
}

// addImNode picks a random flow and, if room remains, appends a PE index
// sampled uniformly from the complement of its current waypoint set.
func (ind *Individual) addImNode(rng *rand.Rand) {
	f := &ind.Table[rng.Intn(len(ind.Table))]
	if len(f.Intermediate) >= ind.NumPEs {
		return
	}

	excluded := make(map[int]bool, len(f.Intermediate)+2)
	excluded[f.Src] = true
	excluded[f.Dst] = true
	for _, v := range f.Intermediate {
		excluded[v] = true
	}

	candidates := make([]int, 0, ind.NumPEs)
	for pe := 0; pe < ind.NumPEs; pe++ {
		if !excluded[pe] {
			candidates = append(candidates, pe)
		}
	}
	if len(candidates) == 0 {
		return
	}
	f.Intermediate = append(f.Intermediate, candidates[rng.Intn(len(candidates))])
}

// rmImNode picks a random flow and, if it has any waypoints, removes one
// chosen uniformly at random.
func (ind *Individual) rmImNode(rng *rand.Rand) {
	f := &ind.Table[rng.Intn(len(ind.Table))]
	if len(f.Intermediate) == 0 {
		return
	}
	j := rng.Intn(len(f.Intermediate))
	f.Intermediate = append(f.Intermediate[:j], f.Intermediate[j+1:]...)
}

// Crossover returns an offspring equal to right with a uniformly sampled
// half of its rows (by index) replaced by the corresponding rows from
// left. Asymmetric: every row comes from either parent, never synthesized.
func Crossover(left, right *Individual, rng *rand.Rand) *Individual {
	offspring := right.Clone()
	n := len(offspring.Table)
	if n == 0 || len(left.Table) != n {
		return offspring
	}

	half := n / 2
	idx := rng.Perm(n)[:half]
	for _, i := range idx {
		offspring.Table[i] = left.Table[i].Clone()
	}
	return offspring
}

// Evaluate builds the full path for every flow, runs the temporal mapper
// and harmonizer, scores the result, reports it to cfg.Tracker, and
// returns the score. It never mutates the genome's Intermediate lists;
// only the derived Path/IssueTime/Delay/IsBound columns of ind.Table are
// overwritten with this evaluation's results (matched by flow ID).
func (ind *Individual) Evaluate(ctx context.Context, cfg EvalConfig) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("genome: evaluate panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	working := ind.Table.Clone()
	for i := range working {
		path, perr := buildPath(cfg.Router, &working[i])
		if perr != nil {
			return 0, fmt.Errorf("genome: flow %d: %w", working[i].ID, perr)
		}
		working[i].Path = path
	}

	mapper.Assign(working)

	if err := harmonizer.Run(working, cfg.Harmonizer); err != nil {
		return 0, fmt.Errorf("genome: harmonizer: %w", err)
	}

	score = scoring.Score(working, cfg.Quantile)

	byID := make(map[int]int, len(ind.Table))
	for j := range ind.Table {
		byID[ind.Table[j].ID] = j
	}
	for _, w := range working {
		if j, ok := byID[w.ID]; ok {
			dst := &ind.Table[j]
			dst.Path, dst.IssueTime, dst.Delay, dst.IsBound = w.Path, w.IssueTime, w.Delay, w.IsBound
		}
	}

	if cfg.Tracker != nil {
		cfg.Tracker.Update(score, working)
	}

	return score, nil
}

// buildPath assembles the full path for one flow: src, then every forced
// waypoint, then dst, dropping the trailing output-port reservation of
// every intermediate segment so only the final segment terminates in
// "output".
func buildPath(router *mesh.Router, f *flowtable.Flow) ([]mesh.Reservation, error) {
	milestones := make([]int, 0, len(f.Intermediate)+2)
	milestones = append(milestones, f.Src)
	milestones = append(milestones, f.Intermediate...)
	milestones = append(milestones, f.Dst)

	var path []mesh.Reservation
	for i := 0; i < len(milestones)-1; i++ {
		seg, err := router.Path(milestones[i], milestones[i+1])
		if err != nil {
			return nil, err
		}
		if i != len(milestones)-2 {
			seg = seg[:len(seg)-1]
		}
		path = append(path, seg...)
	}
	return path, nil
}
