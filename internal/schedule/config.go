package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kingrea/taskcal/internal/calendar"
)

// ErrInvalidConfig marks scheduling configuration that is out of range.
var ErrInvalidConfig = errors.New("invalid schedule config")

// ConfigError names the offending configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("schedule: %s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Capacity is the optional cap on how many tasks may start on one day.
// The zero value is uncapped.
type Capacity struct {
	limit  int
	capped bool
}

// Uncapped places no limit on tasks per day.
func Uncapped() Capacity { return Capacity{} }

// CapAt limits each day to n task starts. n must be positive for the
// configuration to validate.
func CapAt(n int) Capacity { return Capacity{limit: n, capped: true} }

// CapacityFrom converts an optional integer, as decoded from YAML or flags.
func CapacityFrom(n *int) Capacity {
	if n == nil {
		return Uncapped()
	}
	return CapAt(*n)
}

// Limit returns the cap and whether one is set.
func (c Capacity) Limit() (int, bool) {
	return c.limit, c.capped
}

func (c Capacity) String() string {
	if !c.capped {
		return "uncapped"
	}
	return strconv.Itoa(c.limit)
}

// Config carries the scheduling options of one run.
type Config struct {
	// StartDate is the earliest candidate date. A date on the weekend rolls
	// forward to the next workday.
	StartDate time.Time
	// TaskDurationDays is how many calendar days every task occupies.
	TaskDurationDays int
	// Weekend lists the excluded weekdays. The zero value excludes nothing;
	// DefaultConfig uses calendar.DefaultWeekend.
	Weekend        calendar.Weekend
	MaxTasksPerDay Capacity
}

// DefaultConfig returns single-day tasks on a Monday-Friday week, uncapped.
func DefaultConfig(start time.Time) Config {
	return Config{
		StartDate:        calendar.Truncate(start),
		TaskDurationDays: 1,
		Weekend:          calendar.DefaultWeekend(),
		MaxTasksPerDay:   Uncapped(),
	}
}

// Validate reports the first out-of-range field as a *ConfigError.
func (c Config) Validate() error {
	if c.StartDate.IsZero() {
		return &ConfigError{Field: "start_date", Reason: "is required"}
	}
	if c.TaskDurationDays < 1 {
		return &ConfigError{Field: "task_duration_days", Reason: fmt.Sprintf("must be >= 1, got %d", c.TaskDurationDays)}
	}
	if err := c.Weekend.Validate(); err != nil {
		return &ConfigError{Field: "weekend_days", Reason: "at least one workday is required"}
	}
	if limit, ok := c.MaxTasksPerDay.Limit(); ok && limit <= 0 {
		return &ConfigError{Field: "max_tasks_per_day", Reason: fmt.Sprintf("must be > 0 when set, got %d", limit)}
	}
	return nil
}

// DueDate derives the due date of a task starting on start.
func (c Config) DueDate(start time.Time) time.Time {
	return c.Weekend.DueDate(start, c.TaskDurationDays)
}
