// Package calendar implements the workday arithmetic used when assigning
// dates to tasks. Dates are plain calendar days represented as time.Time
// values at UTC midnight; a Weekend marks the weekdays that never receive a
// start or due date.
package calendar
