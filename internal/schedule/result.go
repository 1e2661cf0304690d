package schedule

import (
	"sort"
	"time"

	"github.com/kingrea/taskcal/internal/graph"
)

// Assignment is the dated interval of one task.
type Assignment struct {
	Start time.Time
	Due   time.Time
	// Slot is the layer (Layered) or batch (Batched) index.
	Slot int
}

// Day groups the tasks that start on one date.
type Day struct {
	Date  time.Time
	Tasks []graph.TaskID
}

// Result is the immutable outcome of one scheduling run.
type Result struct {
	cfg         Config
	policy      string
	order       []graph.TaskID
	assignments map[graph.TaskID]Assignment
}

func newResult(cfg Config, policy string, size int) *Result {
	return &Result{
		cfg:         cfg,
		policy:      policy,
		order:       make([]graph.TaskID, 0, size),
		assignments: make(map[graph.TaskID]Assignment, size),
	}
}

func (r *Result) add(id graph.TaskID, a Assignment) {
	r.order = append(r.order, id)
	r.assignments[id] = a
}

// Config returns the configuration the result was produced under.
func (r *Result) Config() Config { return r.cfg }

// Policy names the policy that produced the result.
func (r *Result) Policy() string { return r.policy }

// Len returns the number of scheduled tasks.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Lookup returns the assignment for id.
func (r *Result) Lookup(id graph.TaskID) (Assignment, bool) {
	if r == nil {
		return Assignment{}, false
	}
	a, ok := r.assignments[id]
	return a, ok
}

// IDs returns the scheduled tasks in assignment order.
func (r *Result) IDs() []graph.TaskID {
	if r == nil {
		return nil
	}
	out := make([]graph.TaskID, len(r.order))
	copy(out, r.order)
	return out
}

// Assignments returns a copy of the full mapping.
func (r *Result) Assignments() map[graph.TaskID]Assignment {
	if r == nil {
		return nil
	}
	out := make(map[graph.TaskID]Assignment, len(r.assignments))
	for id, a := range r.assignments {
		out[id] = a
	}
	return out
}

// Days groups tasks by start date, earliest first, keeping assignment order
// within each day.
func (r *Result) Days() []Day {
	if r == nil || len(r.order) == 0 {
		return nil
	}
	index := make(map[time.Time]int)
	var days []Day
	for _, id := range r.order {
		start := r.assignments[id].Start
		pos, ok := index[start]
		if !ok {
			pos = len(days)
			index[start] = pos
			days = append(days, Day{Date: start})
		}
		days[pos].Tasks = append(days[pos].Tasks, id)
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}
