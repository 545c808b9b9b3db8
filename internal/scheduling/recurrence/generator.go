// Package recurrence expands a seed appointment into a bounded series of
// future occurrences.
package recurrence

import (
	"errors"
	"time"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/timegrid"
)

// MaxOccurrences caps a single recurring request. Exceeding it is a
// validation failure, never a silent truncation.
const MaxOccurrences = 200

var (
	ErrInvalidDuration    = errors.New("seed end must be after seed start")
	ErrNoWeekdays         = errors.New("at least one weekday is required")
	ErrWeekdayOutOfRange  = errors.New("weekdays must be between 1 (Monday) and 6 (Saturday)")
	ErrUntilBeforeSeed    = errors.New("end date must not precede the seed day")
	ErrTooManyOccurrences = errors.New("recurrence would exceed 200 occurrences")
)

// Request describes one recurrence expansion. Weekdays are ISO weekday
// numbers 1-6; Sunday (7) is not bookable.
type Request struct {
	SeedStart time.Time
	SeedEnd   time.Time
	Weekdays  []int
	Until     time.Time
}

func (r Request) validate() error {
	if !r.SeedEnd.After(r.SeedStart) {
		return ErrInvalidDuration
	}
	if len(r.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	for _, wd := range r.Weekdays {
		if wd < 1 || wd > 6 {
			return ErrWeekdayOutOfRange
		}
	}
	if timegrid.StartOfDay(r.Until).Before(timegrid.StartOfDay(r.SeedStart)) {
		return ErrUntilBeforeSeed
	}
	return nil
}

// Generate expands the request into ascending occurrence start times, one per
// matching day from the seed day through the end date inclusive. Every
// occurrence keeps the seed's time of day. Occurrences earlier than the seed
// start itself are skipped, so a same-day seed never lands before "now".
func Generate(req Request) ([]time.Time, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(req.Weekdays))
	for _, wd := range req.Weekdays {
		wanted[wd] = true
	}

	var occurrences []time.Time
	last := timegrid.StartOfDay(req.Until)
	for day := timegrid.StartOfDay(req.SeedStart); !day.After(last); day = day.AddDate(0, 0, 1) {
		iso := isoWeekday(day)
		if iso == 7 {
			continue
		}
		if !wanted[iso] {
			continue
		}

		occ := time.Date(
			day.Year(), day.Month(), day.Day(),
			req.SeedStart.Hour(), req.SeedStart.Minute(), req.SeedStart.Second(),
			req.SeedStart.Nanosecond(), req.SeedStart.Location(),
		)
		if occ.Before(req.SeedStart) {
			continue
		}

		if len(occurrences) == MaxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		occurrences = append(occurrences, occ)
	}

	return occurrences, nil
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
