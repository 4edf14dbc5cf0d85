// Package flowtable loads and represents the workload a schedule is built
// for: a table of periodic communication flows between processing elements.
package flowtable

import "github.com/nocsched/focus-scheduler/pkg/mesh"

// Flow is one row of the flow table: a periodic packet stream between two
// processing elements, plus the scheduling fields the search mutates and
// the harmonizer fills in.
type Flow struct {
	ID    int
	Src   int
	Dst   int
	Flit  int
	Interval int
	Counts   int
	Layer    string

	// Captain and EPFL are parsed from the trace for schema completeness
	// but never consulted by routing or the harmonizer.
	Captain *int
	EPFL    *int

	// Intermediate is the ordered list of forced waypoints: the genome the
	// evolutionary search mutates. Never contains Src, Dst, or duplicates.
	Intermediate []int

	// Count is a working copy of Counts, set equal to Counts by the loader
	// and by Clone. The harmonizer keeps its own per-run iteration counters
	// and does not modify this field.
	Count int

	// Path, IssueTime, Delay, and IsBound are derived during evaluation and
	// never persisted back onto the genome.
	Path      []mesh.Reservation
	IssueTime int
	Delay     float64
	IsBound   bool
}

// Clone returns a deep copy suitable for handing to an independent
// Individual: Intermediate is copied, derived fields are reset.
func (f Flow) Clone() Flow {
	c := f
	if f.Intermediate != nil {
		c.Intermediate = append([]int(nil), f.Intermediate...)
	}
	c.Path = nil
	c.IssueTime = 0
	c.Delay = 0
	c.IsBound = false
	c.Count = f.Counts
	return c
}

// CloneResult returns a deep copy that keeps the derived fields intact.
// Use this (not Clone) when snapshotting an already-evaluated table —
// a search result, not fresh genome material for a new Individual.
func (f Flow) CloneResult() Flow {
	c := f
	if f.Intermediate != nil {
		c.Intermediate = append([]int(nil), f.Intermediate...)
	}
	if f.Path != nil {
		c.Path = append([]mesh.Reservation(nil), f.Path...)
	}
	return c
}

// Table is the workload: a stable, id-indexed slice of flows.
type Table []Flow

// Clone deep-copies every row, resetting each row's derived fields.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for i, f := range t {
		out[i] = f.Clone()
	}
	return out
}

// CloneResult deep-copies every row, keeping each row's derived fields.
func (t Table) CloneResult() Table {
	out := make(Table, len(t))
	for i, f := range t {
		out[i] = f.CloneResult()
	}
	return out
}

// ValidationReport collects malformed-row diagnostics gathered while
// loading a trace. A non-empty Errors list fails the load as a whole;
// Warnings are logged and their rows are dropped.
type ValidationReport struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the report carries no fatal errors.
func (r ValidationReport) OK() bool {
	return len(r.Errors) == 0
}
