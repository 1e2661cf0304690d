package schedule

import (
	"fmt"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/graph"
)

// Logger receives one progress line per scheduled slot. *logbook.Logbook
// satisfies it.
type Logger interface {
	Info(format string, args ...any)
}

// Scheduler assigns dates under a validated configuration.
type Scheduler struct {
	cfg    Config
	policy Policy
	logger Logger
}

// Option customizes the scheduler instance.
type Option func(*Scheduler)

// WithLogger reports each slot as it is assigned.
func WithLogger(logger Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New validates cfg and selects its policy. Invalid configuration fails
// here, before any graph work.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	cfg.StartDate = calendar.Truncate(cfg.StartDate)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{cfg: cfg, policy: PolicyFor(cfg)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Schedule is the one-shot form of New followed by (*Scheduler).Schedule.
func Schedule(g *graph.Graph, cfg Config, opts ...Option) (*Result, error) {
	s, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return s.Schedule(g)
}

// Config returns the validated configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Policy returns the policy selected for the configuration.
func (s *Scheduler) Policy() Policy { return s.policy }

// Schedule assigns a start and due date to every node of g. The graph is
// re-validated first; a cycle returns a *graph.CycleError and no result.
func (s *Scheduler) Schedule(g *graph.Graph) (*Result, error) {
	if s == nil {
		return nil, fmt.Errorf("schedule: nil scheduler")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	res := newResult(s.cfg, s.policy.Name(), g.Len())
	if g.Len() == 0 {
		return res, nil
	}
	slots, err := s.policy.slots(g, newCursor(s.cfg))
	if err != nil {
		return nil, err
	}
	for idx, sl := range slots {
		due := s.cfg.DueDate(sl.start)
		s.logf("%d tasks in slot %d, starting %s due %s", len(sl.ids), idx, calendar.Format(sl.start), calendar.Format(due))
		for _, id := range sl.ids {
			res.add(id, Assignment{Start: sl.start, Due: due, Slot: idx})
		}
	}
	return res, nil
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Info(format, args...)
}
