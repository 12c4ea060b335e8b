// Package schedule holds the calendar arithmetic for the business's single
// fixed timezone (US Eastern) and the arrival-window taxonomy. Everything in
// window.go is a pure function so the offset math stays testable without a
// tzdata dependency.
package schedule

import (
	"strings"
	"time"
)

// Window is a named 3-hour arrival window in local time.
type Window struct {
	Name      string
	StartHour int // inclusive, local
	EndHour   int // exclusive, local
}

var (
	Morning   = Window{Name: "morning", StartHour: 8, EndHour: 11}
	Midday    = Window{Name: "midday", StartHour: 11, EndHour: 14}
	Afternoon = Window{Name: "afternoon", StartHour: 14, EndHour: 17}
)

// Windows lists the three arrival windows in chronological order. Together
// they cover the business day 08:00-17:00 local exactly.
var Windows = []Window{Morning, Midday, Afternoon}

// businessDayEnd is the local hour after which same-day booking stops.
const businessDayEnd = 17

// WindowByName maps a spoken window name to its Window. Accepts a few
// phrasings the voice agent produces for the same block.
func WindowByName(name string) (Window, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "morning", "am":
		return Morning, true
	case "midday", "mid-day", "noon", "lunch":
		return Midday, true
	case "afternoon", "pm", "evening":
		return Afternoon, true
	}
	return Window{}, false
}

// ClassifyHour maps a local hour to the window containing it. Hours outside
// 08:00-17:00 return false.
func ClassifyHour(localHour int) (Window, bool) {
	for _, w := range Windows {
		if localHour >= w.StartHour && localHour < w.EndHour {
			return w, true
		}
	}
	return Window{}, false
}

// IsDaylightSaving reports whether US Eastern daylight saving time is in
// effect on the given local calendar date. DST runs from the second Sunday of
// March through the first Sunday of November; the transition Sundays are
// derived per year from the weekday of the 1st.
func IsDaylightSaving(year int, month time.Month, day int) bool {
	switch {
	case month > time.March && month < time.November:
		return true
	case month < time.March || month > time.November:
		return false
	}
	if month == time.March {
		return day >= nthSunday(year, time.March, 2)
	}
	return day < nthSunday(year, time.November, 1)
}

// nthSunday returns the day-of-month of the nth Sunday of the given month.
func nthSunday(year int, month time.Month, n int) int {
	firstWeekday := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	firstSunday := 1 + (7-int(firstWeekday))%7
	return firstSunday + 7*(n-1)
}

// UTCOffsetHours returns the hours to add to Eastern local time to reach UTC
// on the given local date: 4 under DST, 5 under standard time.
func UTCOffsetHours(year int, month time.Month, day int) int {
	if IsDaylightSaving(year, month, day) {
		return 4
	}
	return 5
}

// LocalHourToUTC converts a local civil date + hour to the absolute UTC
// instant, applying the DST-aware offset for that date. Overflow past 23:00
// rolls the calendar forward, including month and year boundaries.
func LocalHourToUTC(year int, month time.Month, day, localHour int) time.Time {
	offset := UTCOffsetHours(year, month, day)
	return time.Date(year, month, day, localHour+offset, 0, 0, 0, time.UTC)
}

// EasternNow derives the current Eastern wall-clock time from a UTC instant.
// Two passes: assume standard time to get a tentative local date, then apply
// that date's real offset. The returned Time carries Eastern wall-clock
// values in the UTC location; callers treat it as civil time only.
func EasternNow(now time.Time) time.Time {
	utc := now.UTC()
	local := utc.Add(-5 * time.Hour)
	if IsDaylightSaving(local.Year(), local.Month(), local.Day()) {
		local = utc.Add(-4 * time.Hour)
	}
	return local
}

// WindowBounds returns the UTC start and end instants of a window on a local
// calendar date.
func WindowBounds(year int, month time.Month, day int, w Window) (start, end time.Time) {
	start = LocalHourToUTC(year, month, day, w.StartHour)
	end = LocalHourToUTC(year, month, day, w.EndHour)
	return start, end
}

// ResolveTargetDate turns a spoken day preference into a concrete local
// civil date, given the current Eastern wall-clock time.
//
//   - "today" resolves to today only before 17:00 local, else tomorrow
//   - "tomorrow", empty, or an unrecognized token resolve to tomorrow
//   - a weekday name resolves to the next occurrence strictly in the future,
//     allowing today itself only before 17:00
//
// The resolved date then skips forward over Saturday and Sunday, so the
// result is always a weekday.
func ResolveTargetDate(dayToken string, nowLocal time.Time) time.Time {
	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
	beforeClose := nowLocal.Hour() < businessDayEnd

	var target time.Time
	switch token := strings.ToLower(strings.TrimSpace(dayToken)); token {
	case "today":
		if beforeClose {
			target = today
		} else {
			target = today.AddDate(0, 0, 1)
		}
	case "", "tomorrow":
		target = today.AddDate(0, 0, 1)
	default:
		weekday, ok := parseWeekday(token)
		if !ok {
			target = today.AddDate(0, 0, 1)
			break
		}
		daysAhead := (int(weekday) - int(today.Weekday()) + 7) % 7
		if daysAhead == 0 && !beforeClose {
			daysAhead = 7
		}
		target = today.AddDate(0, 0, daysAhead)
	}

	for target.Weekday() == time.Saturday || target.Weekday() == time.Sunday {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

func parseWeekday(token string) (time.Weekday, bool) {
	switch token {
	case "sunday":
		return time.Sunday, true
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	}
	return 0, false
}

// BusinessDays enumerates the next n weekday dates starting from the current
// local date. Today is included only while local time is before 17:00.
func BusinessDays(nowLocal time.Time, n int) []time.Time {
	day := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
	if nowLocal.Hour() >= businessDayEnd {
		day = day.AddDate(0, 0, 1)
	}

	days := make([]time.Time, 0, n)
	for len(days) < n {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			days = append(days, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// DayLabel renders a civil date the way the voice agent speaks it: "today",
// "tomorrow", or the weekday name.
func DayLabel(date, nowLocal time.Time) string {
	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
	switch int(date.Sub(today).Hours() / 24) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	}
	return strings.ToLower(date.Weekday().String())
}
