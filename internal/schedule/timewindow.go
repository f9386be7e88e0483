// Package schedule contains the pure availability computations shared
// by the browse, booking and dashboard endpoints: wall-clock helpers,
// the per-table status resolver, the reservation filter pipeline and
// the bookable-slot calculator.  Nothing in this package performs I/O
// or mutates its inputs, and data-quality problems degrade by
// skipping the offending record instead of failing the computation.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ServiceLocation is the fixed timezone in which all reservation
// timestamps are stored and all calendar-date comparisons are made.
// Using one fixed zone avoids off-by-one-day bugs when viewers sit in
// other timezones or across DST transitions.
var ServiceLocation = time.UTC

// MinutesPerDay is the number of minutes in a service day.
const MinutesPerDay = 24 * 60

// MinuteOfDay converts an absolute timestamp to minutes since
// midnight in the service timezone.
func MinuteOfDay(t time.Time) int {
	t = t.In(ServiceLocation)
	return t.Hour()*60 + t.Minute()
}

// ServiceDate formats the calendar date of t in the service timezone
// as YYYY-MM-DD.  Date comparisons throughout the codebase go through
// this helper so they never depend on a viewer-local zone.
func ServiceDate(t time.Time) string {
	return t.In(ServiceLocation).Format("2006-01-02")
}

// SameServiceDate reports whether two timestamps fall on the same
// calendar date in the service timezone.
func SameServiceDate(a, b time.Time) bool {
	return ServiceDate(a) == ServiceDate(b)
}

// ParseClock parses a wall-clock string into minutes since midnight.
// Both 24-hour forms ("14:30", "14:30:00") and 12-hour forms
// ("2:30 PM", "2:30pm") are accepted, since the wire data mixes the
// two representations.
func ParseClock(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty clock value")
	}
	upper := strings.ToUpper(s)
	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(upper, suffix) {
			meridiem = suffix
			upper = strings.TrimSpace(strings.TrimSuffix(upper, suffix))
		}
	}
	parts := strings.Split(upper, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("minute out of range in %q", raw)
	}
	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour out of range in %q", raw)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour out of range in %q", raw)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("hour out of range in %q", raw)
		}
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as a 24-hour "HH:MM"
// string.  Values outside a single day are clamped into range.
func FormatClock(minute int) string {
	if minute < 0 {
		minute = 0
	}
	if minute >= MinutesPerDay {
		minute = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// FormatClock12 renders minutes since midnight in 12-hour form, e.g.
// "2:30 PM", matching the representation used by the booking cards.
func FormatClock12(minute int) string {
	if minute < 0 {
		minute = 0
	}
	minute %= MinutesPerDay
	hour := minute / 60
	meridiem := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		display = hour - 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute%60, meridiem)
}

// Overlaps reports whether two half-open minute intervals
// [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// clockWindow converts a reservation interval to minutes of day for
// time-of-day comparisons.  Intervals that cross midnight are treated
// as ending at 24:00; midnight-spanning reservations are not clearly
// defined upstream and this mirrors the observed behavior.
func clockWindow(start, end time.Time) (int, int) {
	s := MinuteOfDay(start)
	e := MinuteOfDay(end)
	if !SameServiceDate(start, end) || e <= s {
		e = MinutesPerDay
	}
	return s, e
}
