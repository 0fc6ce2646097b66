package query

import (
	"time"

	"tally/internal/core"
)

// Weekday is the configured first day of the week. Weeks starting on
// Monday are the default; Sunday is available for locales that expect
// it.
type Weekday = time.Weekday

// QuickRange names a preset date range anchored on today.
type QuickRange string

const (
	QuickToday          QuickRange = "today"
	QuickYesterday      QuickRange = "yesterday"
	QuickThisWeek       QuickRange = "thisWeek"
	QuickLastWeek       QuickRange = "lastWeek"
	QuickThisMonth      QuickRange = "thisMonth"
	QuickLastMonth      QuickRange = "lastMonth"
	QuickFirstHalfYear  QuickRange = "firstHalfYear"
	QuickSecondHalfYear QuickRange = "secondHalfYear"
	QuickThisYear       QuickRange = "thisYear"
	QuickLastYear       QuickRange = "lastYear"
	QuickCustom         QuickRange = "custom"
)

// Valid reports whether q names a known preset.
func (q QuickRange) Valid() bool {
	switch q {
	case QuickToday, QuickYesterday, QuickThisWeek, QuickLastWeek,
		QuickThisMonth, QuickLastMonth, QuickFirstHalfYear,
		QuickSecondHalfYear, QuickThisYear, QuickLastYear, QuickCustom:
		return true
	}
	return false
}

// Resolve computes the inclusive bounds of a quick range anchored on
// today. The custom tag (and any unknown tag) resolves nothing and
// returns ok=false, leaving existing bounds untouched.
func Resolve(q QuickRange, today core.Date, weekStart Weekday) (DateRange, bool) {
	switch q {
	case QuickToday:
		return DateRange{Start: today, End: today}, true
	case QuickYesterday:
		y := today.AddDays(-1)
		return DateRange{Start: y, End: y}, true
	case QuickThisWeek:
		return DateRange{Start: startOfWeek(today, weekStart), End: today}, true
	case QuickLastWeek:
		start := startOfWeek(today, weekStart).AddDays(-7)
		return DateRange{Start: start, End: start.AddDays(6)}, true
	case QuickThisMonth:
		return DateRange{
			Start: core.NewDate(today.Year(), today.Month(), 1),
			End:   today,
		}, true
	case QuickLastMonth:
		firstOfThis := core.NewDate(today.Year(), today.Month(), 1)
		end := firstOfThis.AddDays(-1)
		return DateRange{
			Start: core.NewDate(end.Year(), end.Month(), 1),
			End:   end,
		}, true
	case QuickFirstHalfYear:
		return DateRange{
			Start: core.NewDate(today.Year(), time.January, 1),
			End:   core.NewDate(today.Year(), time.June, 30),
		}, true
	case QuickSecondHalfYear:
		return DateRange{
			Start: core.NewDate(today.Year(), time.July, 1),
			End:   core.NewDate(today.Year(), time.December, 31),
		}, true
	case QuickThisYear:
		return DateRange{
			Start: core.NewDate(today.Year(), time.January, 1),
			End:   today,
		}, true
	case QuickLastYear:
		return DateRange{
			Start: core.NewDate(today.Year()-1, time.January, 1),
			End:   core.NewDate(today.Year()-1, time.December, 31),
		}, true
	}
	return DateRange{}, false
}

// startOfWeek walks back from d to the configured first day of the
// week.
func startOfWeek(d core.Date, weekStart Weekday) core.Date {
	delta := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-delta)
}
