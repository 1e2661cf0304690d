package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk and command line format for calendar dates.
const DateLayout = "2006-01-02"

// Weekend is the set of weekdays excluded from the workday calendar.
type Weekend uint8

const allDays Weekend = 1<<7 - 1

// DefaultWeekend excludes Saturday and Sunday.
func DefaultWeekend() Weekend {
	return NewWeekend(time.Saturday, time.Sunday)
}

// NewWeekend builds a weekend from the listed days. Values outside
// time.Sunday..time.Saturday are ignored; use ParseWeekend for checked input.
func NewWeekend(days ...time.Weekday) Weekend {
	var w Weekend
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		w |= 1 << uint(day)
	}
	return w
}

// Excludes reports whether day is a non-working day.
func (w Weekend) Excludes(day time.Weekday) bool {
	if day < time.Sunday || day > time.Saturday {
		return false
	}
	return w&(1<<uint(day)) != 0
}

// Days lists the excluded weekdays from Sunday to Saturday.
func (w Weekend) Days() []time.Weekday {
	var out []time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if w.Excludes(day) {
			out = append(out, day)
		}
	}
	return out
}

// Names returns lowercase day names, convenient for YAML output.
func (w Weekend) Names() []string {
	days := w.Days()
	out := make([]string, 0, len(days))
	for _, day := range days {
		out = append(out, strings.ToLower(day.String()))
	}
	return out
}

// Validate rejects a weekend that leaves no workday at all.
func (w Weekend) Validate() error {
	if w&allDays == allDays {
		return fmt.Errorf("calendar: every weekday is excluded")
	}
	return nil
}

func (w Weekend) String() string {
	return strings.Join(w.Names(), ",")
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts an English day name or abbreviation, or a numeric
// index counted from Monday: 0 is Monday and 6 is Sunday, so the usual
// weekend is 5,6. This differs from time.Weekday, where Sunday is 0.
func ParseWeekday(value string) (time.Weekday, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return 0, fmt.Errorf("calendar: weekday is empty")
	}
	if day, ok := weekdayNames[trimmed]; ok {
		return day, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("calendar: unknown weekday %q", value)
	}
	if n < 0 || n > 6 {
		return 0, fmt.Errorf("calendar: weekday index %d out of range 0-6 (0 is Monday)", n)
	}
	return time.Weekday((n + 1) % 7), nil
}

// ParseWeekend parses a list of weekday values. An empty list yields an
// empty weekend (every day is a workday).
func ParseWeekend(values []string) (Weekend, error) {
	var w Weekend
	for _, value := range values {
		day, err := ParseWeekday(value)
		if err != nil {
			return 0, err
		}
		w |= NewWeekend(day)
	}
	return w, nil
}

// Date returns the calendar day y-m-d at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day and location of t, keeping its calendar day.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// IsWorkday reports whether t falls on a day the weekend does not exclude.
func (w Weekend) IsWorkday(t time.Time) bool {
	return !w.Excludes(t.Weekday())
}

// RollForward returns t when it is a workday, otherwise the first workday
// after it. It never moves backwards.
func (w Weekend) RollForward(t time.Time) time.Time {
	t = Truncate(t)
	for i := 0; i < 7 && !w.IsWorkday(t); i++ {
		t = AddDays(t, 1)
	}
	return t
}

// NextWorkdayAfter returns the first workday strictly after t.
func (w Weekend) NextWorkdayAfter(t time.Time) time.Time {
	return w.RollForward(AddDays(Truncate(t), 1))
}

// DueDate returns the last day of a task of the given length started on
// start: start plus days-1 calendar days, rolled forward to a workday.
func (w Weekend) DueDate(start time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	return w.RollForward(AddDays(Truncate(start), days-1))
}
