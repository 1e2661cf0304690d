package schedule

import (
	"fmt"
	"time"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/graph"
)

// Policy decides how graph nodes are grouped onto start dates. The two
// implementations, Layered and Batched, are mutually exclusive; PolicyFor
// picks one from the configured capacity.
type Policy interface {
	Name() string
	slots(g *graph.Graph, c *cursor) ([]slot, error)
}

const (
	PolicyLayered = "layered"
	PolicyBatched = "batched"
)

// PolicyFor selects Layered for an uncapped config and Batched otherwise.
func PolicyFor(cfg Config) Policy {
	if limit, ok := cfg.MaxTasksPerDay.Limit(); ok {
		return Batched{PerDay: limit}
	}
	return Layered{}
}

// slot is one group of tasks sharing a start date.
type slot struct {
	start time.Time
	ids   []graph.TaskID
}

// cursor is the candidate start date for the next slot.
type cursor struct {
	date     time.Time
	weekend  calendar.Weekend
	duration int
}

func newCursor(cfg Config) *cursor {
	return &cursor{
		date:     cfg.Weekend.RollForward(cfg.StartDate),
		weekend:  cfg.Weekend,
		duration: cfg.TaskDurationDays,
	}
}

// advance moves to the first workday after the due date of a task started
// on the current date.
func (c *cursor) advance() {
	due := c.weekend.DueDate(c.date, c.duration)
	c.date = c.weekend.NextWorkdayAfter(due)
}

// Layered assigns each frontier layer a single start date with no cap on
// the number of tasks per day.
type Layered struct{}

func (Layered) Name() string { return PolicyLayered }

func (Layered) slots(g *graph.Graph, c *cursor) ([]slot, error) {
	layers, err := g.Layers()
	if err != nil {
		return nil, err
	}
	out := make([]slot, 0, len(layers))
	for _, layer := range layers {
		out = append(out, slot{start: c.date, ids: layer})
		c.advance()
	}
	return out, nil
}

// Batched walks one global topological order, filling each workday with at
// most PerDay tasks. Tasks of one layer may be split across days, and
// independent tasks are not balanced by depth. A batch also closes early
// when the next task depends on a task already placed in it.
type Batched struct {
	PerDay int
}

func (b Batched) Name() string { return fmt.Sprintf("%s(%d/day)", PolicyBatched, b.PerDay) }

func (b Batched) slots(g *graph.Graph, c *cursor) ([]slot, error) {
	if b.PerDay <= 0 {
		return nil, &ConfigError{Field: "max_tasks_per_day", Reason: fmt.Sprintf("must be > 0, got %d", b.PerDay)}
	}
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	var out []slot
	current := slot{start: c.date}
	placed := make(map[graph.TaskID]struct{}, b.PerDay)
	for _, id := range order {
		if len(current.ids) > 0 && (len(current.ids) >= b.PerDay || dependsOnAny(g, id, placed)) {
			out = append(out, current)
			c.advance()
			current = slot{start: c.date}
			placed = make(map[graph.TaskID]struct{}, b.PerDay)
		}
		current.ids = append(current.ids, id)
		placed[id] = struct{}{}
	}
	if len(current.ids) > 0 {
		out = append(out, current)
	}
	return out, nil
}

func dependsOnAny(g *graph.Graph, id graph.TaskID, set map[graph.TaskID]struct{}) bool {
	for _, prereq := range g.Prerequisites(id) {
		if _, ok := set[prereq]; ok {
			return true
		}
	}
	return false
}
