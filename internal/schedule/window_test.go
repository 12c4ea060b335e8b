package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDaylightSaving_TransitionSundays(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  bool
	}{
		// 2025: DST begins Sun Mar 9, ends Sun Nov 2
		{"2025 day before spring forward", 2025, time.March, 8, false},
		{"2025 spring forward", 2025, time.March, 9, true},
		{"2025 day before fall back", 2025, time.November, 1, true},
		{"2025 fall back", 2025, time.November, 2, false},
		// 2024: DST begins Sun Mar 10, ends Sun Nov 3
		{"2024 day before spring forward", 2024, time.March, 9, false},
		{"2024 spring forward", 2024, time.March, 10, true},
		{"2024 day before fall back", 2024, time.November, 2, true},
		{"2024 fall back", 2024, time.November, 3, false},
		// 2026: DST begins Sun Mar 8, ends Sun Nov 1
		{"2026 spring forward", 2026, time.March, 8, true},
		{"2026 fall back", 2026, time.November, 1, false},
		{"midwinter", 2025, time.January, 15, false},
		{"midsummer", 2025, time.July, 15, true},
		{"december", 2025, time.December, 25, false},
		{"april", 2025, time.April, 1, true},
		{"october", 2025, time.October, 31, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDaylightSaving(tt.year, tt.month, tt.day))
		})
	}
}

func TestIsDaylightSaving_FlipsExactlyOnce(t *testing.T) {
	// March flips false->true exactly once, November true->false exactly once.
	for _, year := range []int{2023, 2024, 2025, 2026, 2027} {
		marchFlips := 0
		for day := 2; day <= 31; day++ {
			if IsDaylightSaving(year, time.March, day) != IsDaylightSaving(year, time.March, day-1) {
				marchFlips++
			}
		}
		assert.Equal(t, 1, marchFlips, "march %d", year)

		novFlips := 0
		for day := 2; day <= 30; day++ {
			if IsDaylightSaving(year, time.November, day) != IsDaylightSaving(year, time.November, day-1) {
				novFlips++
			}
		}
		assert.Equal(t, 1, novFlips, "november %d", year)
	}
}

func TestLocalHourToUTC(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		hour  int
		want  string
	}{
		{"standard time morning", 2025, time.January, 15, 8, "2025-01-15T13:00:00Z"},
		{"daylight time morning", 2025, time.July, 15, 8, "2025-07-15T12:00:00Z"},
		{"overflow to next day", 2025, time.January, 15, 22, "2025-01-16T03:00:00Z"},
		{"month rollover", 2025, time.January, 31, 22, "2025-02-01T03:00:00Z"},
		{"year rollover", 2025, time.December, 31, 22, "2026-01-01T03:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocalHourToUTC(tt.year, tt.month, tt.day, tt.hour)
			assert.Equal(t, tt.want, got.Format(time.RFC3339))
		})
	}
}

func TestEasternNow(t *testing.T) {
	// 2025-01-15 18:30 UTC is 13:30 EST.
	local := EasternNow(time.Date(2025, time.January, 15, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, 13, local.Hour())
	assert.Equal(t, 15, local.Day())

	// 2025-07-15 02:00 UTC is 22:00 EDT the previous day.
	local = EasternNow(time.Date(2025, time.July, 15, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, 22, local.Hour())
	assert.Equal(t, 14, local.Day())
}

func TestClassifyHour_TotalAndNonOverlapping(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		matches := 0
		for _, w := range Windows {
			if hour >= w.StartHour && hour < w.EndHour {
				matches++
			}
		}
		w, ok := ClassifyHour(hour)
		if hour >= 8 && hour < 17 {
			require.True(t, ok, "hour %d", hour)
			assert.Equal(t, 1, matches, "hour %d", hour)
			assert.NotEmpty(t, w.Name)
		} else {
			assert.False(t, ok, "hour %d", hour)
			assert.Equal(t, 0, matches, "hour %d", hour)
		}
	}
}

func TestWindowByName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"morning", "morning", true},
		{"Morning", "morning", true},
		{" midday ", "midday", true},
		{"noon", "midday", true},
		{"afternoon", "afternoon", true},
		{"evening", "afternoon", true},
		{"midnight", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		w, ok := WindowByName(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if ok {
			assert.Equal(t, tt.want, w.Name, "input %q", tt.in)
		}
	}
}

func TestResolveTargetDate(t *testing.T) {
	// Wednesday 2025-06-04, 10:00 local
	wedMorning := time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC)
	// Wednesday 2025-06-04, 18:00 local (past close)
	wedEvening := time.Date(2025, time.June, 4, 18, 0, 0, 0, time.UTC)
	// Friday 2025-06-06, 10:00 local
	friMorning := time.Date(2025, time.June, 6, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		now   time.Time
		want  string
	}{
		{"today before close", "today", wedMorning, "2025-06-04"},
		{"today after close", "today", wedEvening, "2025-06-05"},
		{"tomorrow", "tomorrow", wedMorning, "2025-06-05"},
		{"absent defaults to tomorrow", "", wedMorning, "2025-06-05"},
		{"unrecognized defaults to tomorrow", "whenever", wedMorning, "2025-06-05"},
		{"same weekday before close is today", "wednesday", wedMorning, "2025-06-04"},
		{"same weekday after close skips a week", "wednesday", wedEvening, "2025-06-11"},
		{"future weekday", "friday", wedMorning, "2025-06-06"},
		{"earlier weekday wraps to next week", "monday", wedMorning, "2025-06-09"},
		{"saturday request lands on monday", "saturday", wedMorning, "2025-06-09"},
		{"sunday request lands on monday", "sunday", wedMorning, "2025-06-09"},
		{"tomorrow from friday skips weekend", "tomorrow", friMorning, "2025-06-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTargetDate(tt.token, tt.now)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestResolveTargetDate_NeverWeekend(t *testing.T) {
	tokens := []string{"", "today", "tomorrow", "monday", "tuesday", "wednesday",
		"thursday", "friday", "saturday", "sunday", "garbage"}
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	for dayOffset := 0; dayOffset < 14; dayOffset++ {
		for _, hour := range []int{9, 18} {
			now := start.AddDate(0, 0, dayOffset).Add(time.Duration(hour) * time.Hour)
			for _, token := range tokens {
				got := ResolveTargetDate(token, now)
				wd := got.Weekday()
				assert.NotEqual(t, time.Saturday, wd, "token %q now %s", token, now)
				assert.NotEqual(t, time.Sunday, wd, "token %q now %s", token, now)
			}
		}
	}
}

func TestBusinessDays(t *testing.T) {
	// Friday 2025-06-06, 09:00 local: Fri, Mon, Tue, Wed, Thu
	friMorning := time.Date(2025, time.June, 6, 9, 0, 0, 0, time.UTC)
	days := BusinessDays(friMorning, 5)
	require.Len(t, days, 5)
	assert.Equal(t, "2025-06-06", days[0].Format("2006-01-02"))
	assert.Equal(t, "2025-06-09", days[1].Format("2006-01-02"))
	assert.Equal(t, "2025-06-12", days[4].Format("2006-01-02"))

	// Friday past close: starts Monday
	friEvening := time.Date(2025, time.June, 6, 17, 30, 0, 0, time.UTC)
	days = BusinessDays(friEvening, 3)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-06-09", days[0].Format("2006-01-02"))
}

func TestWindowBounds_DST(t *testing.T) {
	start, end := WindowBounds(2025, time.July, 16, Morning)
	assert.Equal(t, "2025-07-16T12:00:00Z", start.Format(time.RFC3339))
	assert.Equal(t, "2025-07-16T15:00:00Z", end.Format(time.RFC3339))

	start, end = WindowBounds(2025, time.January, 15, Afternoon)
	assert.Equal(t, "2025-01-15T19:00:00Z", start.Format(time.RFC3339))
	assert.Equal(t, "2025-01-15T22:00:00Z", end.Format(time.RFC3339))
}
