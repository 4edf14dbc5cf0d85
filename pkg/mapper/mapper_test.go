package mapper

import (
	"testing"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
)

func TestAssignSortsByIntervalAndZeroesIssueTime(t *testing.T) {
	table := flowtable.Table{
		{ID: 0, Interval: 30, IssueTime: 12},
		{ID: 1, Interval: 10, IssueTime: 99},
		{ID: 2, Interval: 20, IssueTime: 7},
	}
	Assign(table)

	wantOrder := []int{1, 2, 0}
	for i, want := range wantOrder {
		if table[i].ID != want {
			t.Fatalf("position %d: got flow id %d, want %d", i, table[i].ID, want)
		}
		if table[i].IssueTime != 0 {
			t.Fatalf("flow id %d: IssueTime = %d, want 0", table[i].ID, table[i].IssueTime)
		}
	}
}
