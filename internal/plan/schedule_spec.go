package plan

import (
	"fmt"
	"sort"

	"github.com/kingrea/taskcal/internal/calendar"
	"github.com/kingrea/taskcal/internal/schedule"
)

// ScheduleSpec is the YAML form of scheduling options. Unset fields leave
// the base configuration untouched when applied.
type ScheduleSpec struct {
	Start        string   `json:"start,omitempty" yaml:"start,omitempty"`
	DurationDays int      `json:"duration_days,omitempty" yaml:"duration_days,omitempty"`
	Weekend      []string `json:"weekend,omitempty" yaml:"weekend,omitempty"`
	// MaxTasksPerDay caps daily task starts. Absent means uncapped.
	MaxTasksPerDay *int `json:"max_tasks_per_day,omitempty" yaml:"max_tasks_per_day,omitempty"`
}

// Clone returns a deep copy of the spec.
func (s ScheduleSpec) Clone() ScheduleSpec {
	clone := ScheduleSpec{
		Start:        s.Start,
		DurationDays: s.DurationDays,
		Weekend:      cloneStrings(s.Weekend),
	}
	if s.Weekend != nil && clone.Weekend == nil {
		clone.Weekend = []string{}
	}
	if s.MaxTasksPerDay != nil {
		n := *s.MaxTasksPerDay
		clone.MaxTasksPerDay = &n
	}
	return clone
}

// IsZero reports whether no field is set.
func (s ScheduleSpec) IsZero() bool {
	return s.Start == "" && s.DurationDays == 0 && s.Weekend == nil && s.MaxTasksPerDay == nil
}

// Merge overlays the fields set in other onto s.
func (s ScheduleSpec) Merge(other ScheduleSpec) ScheduleSpec {
	out := s.Clone()
	over := other.Clone()
	if over.Start != "" {
		out.Start = over.Start
	}
	if over.DurationDays != 0 {
		out.DurationDays = over.DurationDays
	}
	if over.Weekend != nil {
		out.Weekend = over.Weekend
	}
	if over.MaxTasksPerDay != nil {
		out.MaxTasksPerDay = over.MaxTasksPerDay
	}
	return out
}

// Apply overlays the spec on base. Range checks are left to
// schedule.Config.Validate so every caller gets a *schedule.ConfigError.
func (s ScheduleSpec) Apply(base schedule.Config) (schedule.Config, error) {
	cfg := base
	if s.Start != "" {
		start, err := calendar.ParseDate(s.Start)
		if err != nil {
			return schedule.Config{}, &schedule.ConfigError{Field: "start_date", Reason: err.Error()}
		}
		cfg.StartDate = start
	}
	if s.DurationDays != 0 {
		cfg.TaskDurationDays = s.DurationDays
	}
	if s.Weekend != nil {
		weekend, err := calendar.ParseWeekend(s.Weekend)
		if err != nil {
			return schedule.Config{}, &schedule.ConfigError{Field: "weekend_days", Reason: err.Error()}
		}
		cfg.Weekend = weekend
	}
	if s.MaxTasksPerDay != nil {
		cfg.MaxTasksPerDay = schedule.CapacityFrom(s.MaxTasksPerDay)
	}
	return cfg, nil
}

func (s ScheduleSpec) validate() error {
	if s.Start != "" {
		if _, err := calendar.ParseDate(s.Start); err != nil {
			return err
		}
	}
	if s.DurationDays < 0 {
		return fmt.Errorf("duration_days must be >= 1")
	}
	if _, err := calendar.ParseWeekend(s.Weekend); err != nil {
		return err
	}
	if s.MaxTasksPerDay != nil && *s.MaxTasksPerDay <= 0 {
		return fmt.Errorf("max_tasks_per_day must be > 0 when set")
	}
	return nil
}

func sortedKeys(m DependencyMap) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
