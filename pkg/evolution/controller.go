// Package evolution implements the generational evolutionary search: a
// parallel population manager that initializes, evaluates, selects, and
// breeds individuals across generations.
package evolution

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
	"github.com/nocsched/focus-scheduler/pkg/genome"
	"github.com/nocsched/focus-scheduler/pkg/harmonizer"
	"github.com/nocsched/focus-scheduler/pkg/mesh"
	"github.com/nocsched/focus-scheduler/pkg/metrics"
)

// Config bounds one evolution run.
type Config struct {
	PopulationSize int
	Generations    int
	Workers        int
	MasterSeed     int64

	MeshDiameter int
	Quantile     float64
	Shrink       float64
	Verbose      bool

	// Metrics, if non-nil, receives live gauge updates: generation, best
	// score, harmonizer iteration, worker-pool utilization.
	Metrics *metrics.Exporter

	// OnHarmonizerProgress, if set, is called with the harmonizer's
	// scheduler_verbose every-500-iteration progress line.
	OnHarmonizerProgress func(iteration int)
}

// ProgressFunc is invoked after every generation with its index (0-based)
// and the best score observed so far.
type ProgressFunc func(generation int, bestScore float64)

// Controller owns the population vector and drives the generational loop.
// Workers receive handles to individuals and return owned result structs;
// the BestTracker is the only shared mutable state.
type Controller struct {
	cfg     Config
	base    flowtable.Table
	router  *mesh.Router
	tracker *BestTracker
}

// New builds a Controller over the given workload trace.
func New(cfg Config, base flowtable.Table) (*Controller, error) {
	if cfg.PopulationSize <= 0 || cfg.Workers <= 0 {
		return nil, fmt.Errorf("evolution: population size and worker count must be positive")
	}
	router, err := mesh.NewRouter(cfg.MeshDiameter)
	if err != nil {
		return nil, fmt.Errorf("evolution: %w", err)
	}
	return &Controller{
		cfg:     cfg,
		base:    base,
		router:  router,
		tracker: NewBestTracker(),
	}, nil
}

// Tracker exposes the run's BestTracker, e.g. for a cancellation handler
// that wants to flush a best-so-far report.
func (c *Controller) Tracker() *BestTracker {
	return c.tracker
}

// Run executes Init followed by Generations rounds of evaluate/select/
// breed, and returns the highest-scoring individual of the final
// generation. With zero generations it returns the first seed individual,
// unevaluated, with no error. New rejects a non-positive population size,
// so the population is never empty here.
func (c *Controller) Run(ctx context.Context, progress ProgressFunc) (*genome.Individual, error) {
	population := c.initPopulation()
	if len(population) == 0 || c.cfg.Generations == 0 {
		return population[0], nil
	}

	numPEs := c.cfg.MeshDiameter * c.cfg.MeshDiameter

	for gen := 0; gen < c.cfg.Generations; gen++ {
		scores, err := c.evaluateGeneration(ctx, population)
		if err != nil {
			return nil, err
		}

		order := rankDescending(scores)
		best := population[order[0]]

		bestScore, _ := c.tracker.Best()
		if progress != nil {
			progress(gen, bestScore)
		}
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.Generation.Set(float64(gen))
			c.cfg.Metrics.BestScore.Set(bestScore)
		}

		if gen == c.cfg.Generations-1 {
			return best, nil
		}

		survivorCount := (len(population) + 1) / 2
		survivors := make([]*genome.Individual, survivorCount)
		for i := 0; i < survivorCount; i++ {
			survivors[i] = population[order[i]]
		}

		next := make([]*genome.Individual, 0, len(population))
		next = append(next, survivors...)

		breedRNG := rngFor(c.cfg.MasterSeed, -1, gen)
		for len(next) < len(population) {
			left := survivors[breedRNG.Intn(len(survivors))]
			right := survivors[breedRNG.Intn(len(survivors))]
			child := genome.Crossover(left, right, breedRNG)
			child.Mutate(breedRNG)
			if child.NumPEs == 0 {
				child.NumPEs = numPEs
			}
			next = append(next, child)
		}
		population = next
	}

	return population[0], nil
}

// initPopulation seeds PopulationSize individuals by mutating a clone of
// the base trace U times, U ~ Uniform[0, 100) per seed.
func (c *Controller) initPopulation() []*genome.Individual {
	numPEs := c.cfg.MeshDiameter * c.cfg.MeshDiameter
	population := make([]*genome.Individual, c.cfg.PopulationSize)
	for i := range population {
		rng := rngFor(c.cfg.MasterSeed, i, -1)
		ind := genome.New(c.base, numPEs)
		u := rng.Intn(100)
		for s := 0; s < u; s++ {
			ind.Mutate(rng)
		}
		population[i] = ind
	}
	return population
}

// evaluateGeneration scores every individual in parallel over a bounded
// worker pool, recovering per-task panics as a worst-possible score rather
// than failing the whole generation.
func (c *Controller) evaluateGeneration(ctx context.Context, population []*genome.Individual) ([]float64, error) {
	scores := make([]float64, len(population))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, c.cfg.Workers)

	progressEvery := 0
	if c.cfg.Verbose {
		progressEvery = 500
	}

	var busy int64
	onHarmonizerProgress := func(iteration int) {
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.HarmonizerIteration.Set(float64(iteration))
		}
		if c.cfg.OnHarmonizerProgress != nil {
			c.cfg.OnHarmonizerProgress(iteration)
		}
	}

	for i, ind := range population {
		i, ind := i, ind
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()

			if c.cfg.Metrics != nil {
				n := atomic.AddInt64(&busy, 1)
				c.cfg.Metrics.WorkerUtilization.Set(float64(n) / float64(c.cfg.Workers))
				defer func() {
					n := atomic.AddInt64(&busy, -1)
					c.cfg.Metrics.WorkerUtilization.Set(float64(n) / float64(c.cfg.Workers))
				}()
			}

			score, err := ind.Evaluate(gctx, genome.EvalConfig{
				Router: c.router,
				Harmonizer: harmonizer.Options{
					NumRouters:    c.cfg.MeshDiameter * c.cfg.MeshDiameter,
					Shrink:        c.cfg.Shrink,
					Verbose:       c.cfg.Verbose,
					ProgressEvery: progressEvery,
					OnProgress:    onHarmonizerProgress,
				},
				Quantile: c.cfg.Quantile,
				Tracker:  c.tracker,
			})
			if err != nil {
				scores[i] = negInf
				return nil
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

var negInf = math.Inf(-1)

// rankDescending returns population indices ordered by (score desc,
// index asc), matching the deterministic aggregation the concurrency
// model requires before selection.
func rankDescending(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// rngFor derives a deterministic per-lane, per-generation RNG from the
// master seed: never a shared global source across goroutines.
func rngFor(masterSeed int64, lane, generation int) *rand.Rand {
	h := fnv.New64a()
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(masterSeed))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(lane)))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(int64(generation)))
	// lane and generation may be negative sentinels (-1); the int64->uint64
	// reinterpretation keeps the hash well-defined without branching.
	h.Write(buf[:])
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
