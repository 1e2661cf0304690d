// Package tracker connects the scheduling core to the task tracker around
// it. The tracker is modelled as two explicit collaborators: an EdgeSource
// that supplies dependency pairs and a DateSink that receives the assigned
// dates. Neither is process-wide state; callers construct and pass them in.
package tracker

import (
	"context"
	"fmt"

	"github.com/kingrea/taskcal/internal/graph"
	"github.com/kingrea/taskcal/internal/plan"
	"github.com/kingrea/taskcal/internal/schedule"
)

// EdgeSource supplies every dependency relationship of a project.
type EdgeSource interface {
	Edges(ctx context.Context) ([]graph.Edge, error)
}

// KnownTasks is implemented by sources that can list every task they own,
// enabling the unknown reference check.
type KnownTasks interface {
	TaskIDs(ctx context.Context) ([]graph.TaskID, error)
}

// DateSink receives the assigned dates, one task at a time.
type DateSink interface {
	SetDates(ctx context.Context, id graph.TaskID, a schedule.Assignment) error
}

// PlanSource serves edges from a loaded plan definition.
type PlanSource struct {
	Definition plan.Definition
}

// Edges implements EdgeSource.
func (s PlanSource) Edges(ctx context.Context) ([]graph.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Definition.Edges(), nil
}

// TaskIDs implements KnownTasks.
func (s PlanSource) TaskIDs(ctx context.Context) ([]graph.TaskID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Definition.TaskIDs(), nil
}

// Run fetches the edges from src, schedules them under cfg, and writes every
// assignment to sink in schedule order. ctx is checked before scheduling and
// between sink writes; the scheduling pass itself is never interrupted. The
// first sink error stops the write-back and is returned with the result
// computed so far.
func Run(ctx context.Context, src EdgeSource, cfg schedule.Config, sink DateSink, opts ...schedule.Option) (*schedule.Result, error) {
	if src == nil {
		return nil, fmt.Errorf("tracker: edge source is required")
	}
	sched, err := schedule.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	edges, err := src.Edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker: fetch edges: %w", err)
	}
	var buildOpts []graph.BuildOption
	if known, ok := src.(KnownTasks); ok {
		ids, err := known.TaskIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("tracker: list tasks: %w", err)
		}
		buildOpts = append(buildOpts, graph.WithKnownTasks(ids...))
	}
	g, err := graph.Build(edges, buildOpts...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := sched.Schedule(g)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return res, nil
	}
	return res, Apply(ctx, res, sink)
}

// Apply writes every assignment of res to sink in schedule order.
func Apply(ctx context.Context, res *schedule.Result, sink DateSink) error {
	for _, id := range res.IDs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, _ := res.Lookup(id)
		if err := sink.SetDates(ctx, id, a); err != nil {
			return fmt.Errorf("tracker: set dates for %s: %w", id, err)
		}
	}
	return nil
}
