// Package schedule holds the daily attendance schedule and the status
// classification rule shared by the ledger write path and reporting.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks schedule updates that are malformed or logically
// invalid. A rejected update never mutates the active schedule.
var ErrValidation = errors.New("invalid schedule")

// Attendance status labels returned by Classify.
const (
	StatusOnTime = "on time"
	StatusLate   = "late"
	StatusNone   = "--"
)

// clockLayout is the wire format for times of day.
const clockLayout = "15:04:05"

// Clock is a wall-clock time of day, independent of date and zone.
type Clock struct {
	Hour, Minute, Second int
}

// ParseClock parses "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: parsing time of day %q: %v", ErrValidation, s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// ClockOf extracts the time of day from a timestamp.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Seconds returns the clock as seconds since midnight.
func (c Clock) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// Add returns the clock shifted by a number of minutes.
func (c Clock) Add(minutes int) Clock {
	s := c.Seconds() + minutes*60
	return Clock{Hour: s / 3600 % 24, Minute: s / 60 % 60, Second: s % 60}
}

// After reports whether c is strictly later in the day than other.
func (c Clock) After(other Clock) bool {
	return c.Seconds() > other.Seconds()
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Schedule is the single active daily schedule. Start and End bound the
// working day; arrivals after Start plus the grace period classify as
// late.
type Schedule struct {
	Start            Clock
	End              Clock
	LateGraceMinutes int
}

// Parse builds a schedule from wire values and validates it.
func Parse(start, end string, lateGraceMinutes int) (Schedule, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Schedule{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Schedule{}, err
	}
	sched := Schedule{Start: s, End: e, LateGraceMinutes: lateGraceMinutes}
	if err := sched.Validate(); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

// Validate checks the schedule's internal consistency.
func (s Schedule) Validate() error {
	if s.LateGraceMinutes < 0 {
		return fmt.Errorf("%w: late grace must be non-negative, got %d", ErrValidation, s.LateGraceMinutes)
	}
	if !s.End.After(s.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrValidation, s.End, s.Start)
	}
	return nil
}

// Threshold is the latest on-time arrival: start plus the grace period.
// Compute it once per schedule read, not per record.
func (s Schedule) Threshold() Clock {
	return s.Start.Add(s.LateGraceMinutes)
}

// Classify returns the status for an arrival time of day against a
// precomputed threshold. Arrivals at the threshold are still on time.
func Classify(arrival Clock, threshold Clock) string {
	if arrival.After(threshold) {
		return StatusLate
	}
	return StatusOnTime
}

// Provider supplies the active schedule. The settings store implements
// it; tests use a fixed in-memory value.
type Provider interface {
	ActiveSchedule(ctx context.Context) (Schedule, error)
}

// Fixed is a Provider returning a constant schedule.
type Fixed Schedule

// ActiveSchedule implements Provider.
func (f Fixed) ActiveSchedule(ctx context.Context) (Schedule, error) {
	return Schedule(f), nil
}
