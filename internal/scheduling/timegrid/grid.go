// Package timegrid maps calendar time onto the day/week grid: minute offsets
// inside the visible-hour window, period bucket indices, and the Monday-start
// six-day week.
package timegrid

import "time"

const (
	// MinBlockMinutes is the smallest rendered block height; shorter
	// appointments are still drawn this tall.
	MinBlockMinutes = 15

	// VisibleWeekDays is the number of days in a week view. The practice does
	// not book Sundays, so the week runs Monday through Saturday.
	VisibleWeekDays = 6
)

// Window is the visible-hour window of the grid.
type Window struct {
	StartHour int
	EndHour   int
}

func DefaultWindow() Window {
	return Window{StartHour: 8, EndHour: 21}
}

// Minutes returns the window span in minutes.
func (w Window) Minutes() int {
	return (w.EndHour - w.StartHour) * 60
}

// StartOn returns the window start instant on the given calendar day.
func (w Window) StartOn(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), w.StartHour, 0, 0, 0, day.Location())
}

// EndOn returns the window end instant on the given calendar day.
func (w Window) EndOn(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), w.EndHour, 0, 0, 0, day.Location())
}

// Position is a block placement inside the window, in minutes.
type Position struct {
	Top    int `json:"top"`
	Height int `json:"height"`
}

// PositionOf places [start, end) inside the window of start's day. Top is the
// minute offset from the window start; Height is the duration in minutes,
// clamped to MinBlockMinutes.
func PositionOf(start, end time.Time, w Window) Position {
	top := int(start.Sub(w.StartOn(start)).Minutes())
	height := int(end.Sub(start).Minutes())
	if height < MinBlockMinutes {
		height = MinBlockMinutes
	}
	return Position{Top: top, Height: height}
}

// PeriodKind selects the bucket axis for BucketIndexOf.
type PeriodKind string

const (
	PeriodHour     PeriodKind = "hour"
	PeriodWeekday  PeriodKind = "weekday"
	PeriodMonthDay PeriodKind = "monthday"
)

// BucketIndexOf maps a timestamp to an hour-of-day, day-of-week (Monday = 0)
// or day-of-month index.
func BucketIndexOf(t time.Time, kind PeriodKind) int {
	switch kind {
	case PeriodHour:
		return t.Hour()
	case PeriodWeekday:
		return (int(t.Weekday()) + 6) % 7
	case PeriodMonthDay:
		return t.Day() - 1
	default:
		return 0
	}
}

// StartOfWeek returns midnight of the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -BucketIndexOf(day, PeriodWeekday))
}

// WeekOf returns the six visible days of t's week, Monday through Saturday.
func WeekOf(t time.Time) []time.Time {
	monday := StartOfWeek(t)
	days := make([]time.Time, VisibleWeekDays)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// StartOfDay returns midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBounds returns the [midnight, next midnight) range of t's day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// ClampToWindow keeps t inside the window of its own day.
func ClampToWindow(t time.Time, w Window) time.Time {
	if start := w.StartOn(t); t.Before(start) {
		return start
	}
	if end := w.EndOn(t); t.After(end) {
		return end
	}
	return t
}

// RoundToGranularity rounds t to the nearest multiple of granularity.
func RoundToGranularity(t time.Time, granularity time.Duration) time.Time {
	if granularity <= 0 {
		return t
	}
	return t.Round(granularity)
}
