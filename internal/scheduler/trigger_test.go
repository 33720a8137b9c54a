package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Friday 2026-08-28 10:00 UTC.
var anchor = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func TestNextFireOneShot(t *testing.T) {
	future := anchor.Add(2 * time.Hour)
	next, ok := Trigger{At: &future}.NextFire(anchor)
	require.True(t, ok)
	assert.Equal(t, future, next)

	past := anchor.Add(-time.Minute)
	_, ok = Trigger{At: &past}.NextFire(anchor)
	assert.False(t, ok)
}

func TestNextFireDaily(t *testing.T) {
	tr := Trigger{Pattern: "daily", Hour: 9, Minute: 30}

	// 09:30 already passed today, so tomorrow.
	next, ok := tr.NextFire(anchor)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC), next)

	// Still ahead today.
	next, ok = tr.NextFire(anchor.Add(-2 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC), next)
}

func TestNextFireWeeklyPicksNearestListedDay(t *testing.T) {
	tr := Trigger{
		Pattern:  "weekly",
		Hour:     8,
		Minute:   0,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
	}

	// From Friday, the nearest listed day is Monday.
	next, ok := tr.NextFire(anchor)
	require.True(t, ok)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC), next)
}

func TestNextFireWeeklySameDayLaterTime(t *testing.T) {
	tr := Trigger{
		Pattern:  "weekly",
		Hour:     23,
		Minute:   0,
		Weekdays: []time.Weekday{time.Friday},
	}
	next, ok := tr.NextFire(anchor)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC), next)
}

func TestNextFireWeeklyEmptySet(t *testing.T) {
	_, ok := Trigger{Pattern: "weekly", Hour: 8}.NextFire(anchor)
	assert.False(t, ok)
}

func TestNextFireMonthlyClampsDay(t *testing.T) {
	tr := Trigger{Pattern: "monthly", Hour: 7, Minute: 15, DayOfMonth: 31}

	// From mid-January, the 31st is still ahead.
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	next, ok := tr.NextFire(from)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 31, 7, 15, 0, 0, time.UTC), next)

	// From February, day 31 clamps to the 28th.
	from = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	next, ok = tr.NextFire(from)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 28, 7, 15, 0, 0, time.UTC), next)
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"Monday", "friday"})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, days)

	_, err = ParseWeekdays([]string{"someday"})
	assert.Error(t, err)
}
