package eventful

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatStart(t *testing.T) {
	// Wednesday, mid-afternoon.
	now := time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)

	at := func(t time.Time, allday bool) Span {
		return Span{Start: &TimePart{Date: t, Allday: allday}}
	}

	tests := []struct {
		name string
		span Span
		want string
	}{
		{"no start", Span{}, ""},
		{"today", at(time.Date(2024, 5, 15, 18, 30, 0, 0, time.UTC), false), "Today at 6:30 PM"},
		{"tomorrow", at(time.Date(2024, 5, 16, 9, 0, 0, 0, time.UTC), false), "Tomorrow at 9:00 AM"},
		{"yesterday allday", at(time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), true), "Yesterday"},
		{"this week", at(time.Date(2024, 5, 18, 9, 0, 0, 0, time.UTC), false), "Saturday at 9:00 AM"},
		{"last week", at(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), false), "last Friday at 9:00 AM"},
		{"far out allday", at(time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), true), "07/04/2024"},
		{"far out timed shows clock only", at(time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC), false), "12:00 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatStart(tt.span, now))
		})
	}
}

func TestFormatStartAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks spring forward overnight, so the next noon is only 23 hours
	// away. It is still tomorrow.
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	span := Span{Start: &TimePart{Date: time.Date(2024, 3, 10, 12, 0, 0, 0, loc)}}

	require.Equal(t, "Tomorrow at 12:00 PM", FormatStart(span, now))

	// And the reverse direction across the fall-back 25-hour day.
	now = time.Date(2024, 11, 3, 12, 0, 0, 0, loc)
	span = Span{Start: &TimePart{Date: time.Date(2024, 11, 2, 12, 0, 0, 0, loc), Allday: true}}

	require.Equal(t, "Yesterday", FormatStart(span, now))
}

func TestReminderUnitSubtractFrom(t *testing.T) {
	start := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	require.Equal(t, start.Add(-30*time.Minute), UnitMinute.SubtractFrom(start, 30))
	require.Equal(t, start.Add(-2*time.Hour), UnitHour.SubtractFrom(start, 2))
	require.Equal(t, time.Date(2024, 3, 29, 12, 0, 0, 0, time.UTC), UnitDay.SubtractFrom(start, 2))
	require.Equal(t, time.Date(2024, 3, 24, 12, 0, 0, 0, time.UTC), UnitWeek.SubtractFrom(start, 1))

	// Calendar month arithmetic, not a fixed duration.
	require.Equal(t, time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), UnitMonth.SubtractFrom(start, 1))
}

func TestReminderUnitLabel(t *testing.T) {
	require.Equal(t, "minute", UnitMinute.Label())
	require.Equal(t, "month", UnitMonth.Label())
	require.True(t, UnitWeek.Valid())
	require.False(t, ReminderUnit("y").Valid())
}
