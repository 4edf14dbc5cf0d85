package genome

import (
	"context"
	"math/rand"
	"testing"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
	"github.com/nocsched/focus-scheduler/pkg/harmonizer"
	"github.com/nocsched/focus-scheduler/pkg/mesh"
)

func sampleTable() flowtable.Table {
	return flowtable.Table{
		{ID: 0, Src: 0, Dst: 5, Flit: 2, Interval: 10, Counts: 3, Count: 3, Layer: "l1"},
		{ID: 1, Src: 5, Dst: 0, Flit: 2, Interval: 12, Counts: 2, Count: 2, Layer: "l1"},
	}
}

func TestMutateNeverIntroducesSrcOrDstAsWaypoint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ind := New(sampleTable(), 16)
	for i := 0; i < 200; i++ {
		ind.Mutate(rng)
	}
	for _, f := range ind.Table {
		for _, w := range f.Intermediate {
			if w == f.Src || w == f.Dst {
				t.Fatalf("waypoint %d equals src/dst for flow %d", w, f.ID)
			}
		}
	}
}

func TestMutateNeverDuplicatesWaypoints(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ind := New(sampleTable(), 16)
	for i := 0; i < 500; i++ {
		ind.Mutate(rng)
	}
	for _, f := range ind.Table {
		seen := make(map[int]bool)
		for _, w := range f.Intermediate {
			if seen[w] {
				t.Fatalf("duplicate waypoint %d in flow %d", w, f.ID)
			}
			seen[w] = true
		}
	}
}

func TestCrossoverRowsComeFromEitherParentOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	left := New(sampleTable(), 16)
	right := New(sampleTable(), 16)
	left.Table[0].Intermediate = []int{4}
	right.Table[1].Intermediate = []int{9}

	child := Crossover(left, right, rng)

	for i, row := range child.Table {
		matchesLeft := equalIntermediate(row.Intermediate, left.Table[i].Intermediate)
		matchesRight := equalIntermediate(row.Intermediate, right.Table[i].Intermediate)
		if !matchesLeft && !matchesRight {
			t.Fatalf("row %d is neither parent's row: %v", i, row.Intermediate)
		}
	}
}

func equalIntermediate(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEvaluateReportsToTracker(t *testing.T) {
	router, err := mesh.NewRouter(4)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ind := New(sampleTable(), 16)
	tracker := &recordingTracker{}

	cfg := EvalConfig{
		Router:     router,
		Harmonizer: harmonizer.Options{NumRouters: 16, Shrink: 1},
		Quantile:   0.9,
		Tracker:    tracker,
	}

	score, err := ind.Evaluate(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if tracker.calls != 1 {
		t.Fatalf("expected tracker.Update to be called once, got %d", tracker.calls)
	}
	if tracker.lastScore != score {
		t.Fatalf("tracker score %v != returned score %v", tracker.lastScore, score)
	}
}

type recordingTracker struct {
	calls     int
	lastScore float64
}

func (r *recordingTracker) Update(score float64, table flowtable.Table) {
	r.calls++
	r.lastScore = score
}
