// Package duration resolves human-entered project durations ("3 months",
// "2 weeks") into calendar-correct end dates.
package duration

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)\s*(day|week|month|year)s?$`)

// Resolve parses a duration string of the shape "<integer> <unit>" (unit one
// of day, week, month or year, case-insensitive, plural and space optional)
// and returns the end date computed from start.
//
// Day and week durations use exact day arithmetic. Month and year durations
// use calendar increments: the day-of-month is clamped to the last valid day
// of the target month, so Jan 31 plus one month lands on the last day of
// February rather than spilling into March.
//
// Malformed input returns ok=false, never an error; callers treat a missing
// end date as "unspecified".
func Resolve(start time.Time, s string) (end time.Time, ok bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	match := durationPattern.FindStringSubmatch(normalized)
	if match == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}

	switch match[2] {
	case "day":
		return start.AddDate(0, 0, n), true
	case "week":
		return start.AddDate(0, 0, 7*n), true
	case "month":
		return addMonthsClamped(start, n), true
	case "year":
		return addMonthsClamped(start, 12*n), true
	}
	return time.Time{}, false
}

// addMonthsClamped advances t by the given number of calendar months,
// clamping the day-of-month to the length of the target month.
// time.AddDate is unsuitable here: it normalizes overflow days forward
// (Jan 31 + 1 month = Mar 2/3).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	total := year*12 + int(month) - 1 + months
	targetYear := total / 12
	targetMonth := time.Month(total%12 + 1)

	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}

	hour, min, sec := t.Clock()
	return time.Date(targetYear, targetMonth, day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
