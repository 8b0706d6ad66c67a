package eventful

import (
	"fmt"
	"time"
)

// FormatStart renders a span's start as a short calendar phrase relative to
// now: "Today at 3:04 PM", "Tomorrow", "Saturday at 9:00 AM", "last Monday",
// and so on. All-day starts omit the clock time. Beyond a week out in either
// direction, all-day starts show the date and timed starts show only the
// clock time. Returns "" when the span has no start.
func FormatStart(s Span, now time.Time) string {
	if !s.HasStart() {
		return ""
	}

	start := s.Start.Date.In(now.Location())
	day := calendarDay(start, now)

	if s.Start.Allday {
		if day == "" {
			return start.Format("01/02/2006")
		}
		return day
	}

	clock := start.Format("3:04 PM")
	if day == "" {
		return clock
	}
	return fmt.Sprintf("%s at %s", day, clock)
}

// calendarDay names the day relative to now, or "" when it is more than a
// week away.
func calendarDay(t, now time.Time) string {
	// Count calendar days, not elapsed hours: a DST-shortened day is still
	// one day apart.
	ordinal := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	days := int(ordinal(t).Sub(ordinal(now)) / (24 * time.Hour))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 1 && days < 7:
		return t.Weekday().String()
	case days < -1 && days > -7:
		return "last " + t.Weekday().String()
	default:
		return ""
	}
}
