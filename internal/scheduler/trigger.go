// internal/scheduler/trigger.go
package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Trigger describes when a job fires: a one-shot timestamp, or a cron-like
// recurrence (daily, weekly with a weekday set, monthly with a day of month)
// anchored to an hour and minute.
type Trigger struct {
	// One-shot.
	At *time.Time

	// Recurrence. Pattern is empty for one-shot triggers.
	Pattern    string // daily, weekly, monthly
	Hour       int
	Minute     int
	Weekdays   []time.Weekday // weekly
	DayOfMonth int            // monthly
}

// Recurring reports whether the trigger re-arms after firing.
func (t Trigger) Recurring() bool {
	return t.Pattern != ""
}

// weekdayNames maps configured weekday names onto time.Weekday.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekdays converts weekday names (case-insensitive) into
// time.Weekday values, erroring on anything unrecognized.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		days = append(days, d)
	}
	return days, nil
}

// NextFire computes the first fire time strictly after from. ok is false for
// a one-shot trigger whose timestamp already passed, or an empty weekly set.
func (t Trigger) NextFire(from time.Time) (time.Time, bool) {
	if t.At != nil && t.Pattern == "" {
		if t.At.After(from) {
			return *t.At, true
		}
		return time.Time{}, false
	}

	switch t.Pattern {
	case "daily":
		next := time.Date(from.Year(), from.Month(), from.Day(), t.Hour, t.Minute, 0, 0, from.Location())
		if !next.After(from) {
			next = next.AddDate(0, 0, 1)
		}
		return next, true

	case "weekly":
		if len(t.Weekdays) == 0 {
			return time.Time{}, false
		}
		allowed := make(map[time.Weekday]bool, len(t.Weekdays))
		for _, d := range t.Weekdays {
			allowed[d] = true
		}
		for offset := 0; offset <= 7; offset++ {
			day := from.AddDate(0, 0, offset)
			if !allowed[day.Weekday()] {
				continue
			}
			next := time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, from.Location())
			if next.After(from) {
				return next, true
			}
		}
		return time.Time{}, false

	case "monthly":
		for offset := 0; offset <= 12; offset++ {
			// First-of-month anchor keeps AddDate-style day overflow from
			// skipping short months.
			base := time.Date(from.Year(), from.Month()+time.Month(offset), 1, 0, 0, 0, 0, from.Location())
			next := time.Date(base.Year(), base.Month(), clampDay(base.Year(), base.Month(), t.DayOfMonth), t.Hour, t.Minute, 0, 0, from.Location())
			if next.After(from) {
				return next, true
			}
		}
		return time.Time{}, false
	}

	return time.Time{}, false
}

// clampDay pins day-of-month to the month's length, so a campaign set for
// the 31st still fires in February.
func clampDay(year int, month time.Month, day int) int {
	if day < 1 {
		day = 1
	}
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
