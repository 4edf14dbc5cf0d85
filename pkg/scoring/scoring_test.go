package scoring

import (
	"testing"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
)

func TestScoreSingleLayerMatchesNegativeProxy(t *testing.T) {
	table := flowtable.Table{
		{Layer: "conv1", Delay: 2, Interval: 10, Counts: 3},
	}
	got := Score(table, 0.9)
	want := -((2 + 10) * 3.0)
	if got != want {
		t.Fatalf("Score = %v, want %v", got, want)
	}
}

func TestScoreIsMonotonicInDominatingFlow(t *testing.T) {
	dominant := flowtable.Table{
		{Layer: "l1", Delay: 10, Interval: 10, Counts: 2},
		{Layer: "l2", Delay: 1, Interval: 5, Counts: 1},
	}
	dominated := flowtable.Table{
		{Layer: "l1", Delay: 1, Interval: 10, Counts: 2},
		{Layer: "l2", Delay: 1, Interval: 5, Counts: 1},
	}

	scoreA := Score(dominant, 1.0)
	scoreB := Score(dominated, 1.0)

	if scoreA > scoreB {
		t.Fatalf("dominating schedule must not score higher: A=%v B=%v", scoreA, scoreB)
	}
}

func TestScoreGroupsByLayerTakingMax(t *testing.T) {
	table := flowtable.Table{
		{Layer: "l1", Delay: 0, Interval: 10, Counts: 1},
		{Layer: "l1", Delay: 100, Interval: 10, Counts: 1},
	}
	got := Score(table, 1.0)
	want := -((100 + 10) * 1.0)
	if got != want {
		t.Fatalf("Score = %v, want %v (max within layer)", got, want)
	}
}
