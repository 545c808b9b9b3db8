// Package availability computes free candidate slots and the day occupancy
// forecast from the appointments of a single calendar day.
package availability

import (
	"fmt"
	"time"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/timegrid"
)

const (
	// SlotStepMinutes is the spacing between candidate starts.
	SlotStepMinutes = 30
	// SlotDurationMinutes is the advertised length of a candidate slot.
	SlotDurationMinutes = 60

	// Occupancy bands are product-tuned, not derived.
	HighOccupancyThreshold   = 0.40
	MediumOccupancyThreshold = 0.20
)

// Slot is a free candidate window, recomputed on every query.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

type Recommendation string

const (
	RecommendationHigh   Recommendation = "high"
	RecommendationMedium Recommendation = "medium"
	RecommendationLow    Recommendation = "low"
)

// Forecast is the day occupancy summary. Overlapping appointments are
// double-counted: overlap is presumed rare and invalid upstream.
type Forecast struct {
	TotalEvents      int            `json:"total_events"`
	OccupiedMinutes  int            `json:"occupied_minutes"`
	AvailableMinutes int            `json:"available_minutes"`
	OccupancyRate    float64        `json:"occupancy_rate"`
	Recommendation   Recommendation `json:"recommendation"`
}

type Engine struct {
	window timegrid.Window
}

func NewEngine(window timegrid.Window) *Engine {
	return &Engine{window: window}
}

// AvailableSlots returns the unoccupied candidate slots of the given day. A
// candidate is occupied when an appointment of that day overlaps its opening
// half-hour step under the half-open test; edge-touching is free. The
// hour-long end is display sizing.
func (e *Engine) AvailableSlots(day time.Time, appointments []*model.Appointment) []Slot {
	step := SlotStepMinutes * time.Minute
	duration := SlotDurationMinutes * time.Minute

	sameDay := filterDay(day, appointments)

	var free []Slot
	windowEnd := e.window.EndOn(day)
	for start := e.window.StartOn(day); start.Add(duration).Before(windowEnd) || start.Add(duration).Equal(windowEnd); start = start.Add(step) {
		if occupied(start, start.Add(step), sameDay) {
			continue
		}
		end := start.Add(duration)
		free = append(free, Slot{
			Start: start,
			End:   end,
			Label: fmt.Sprintf("%s - %s", start.Format("15:04"), end.Format("15:04")),
		})
	}
	return free
}

// Forecast summarizes the day's occupancy against the full visible window.
func (e *Engine) Forecast(day time.Time, appointments []*model.Appointment) Forecast {
	sameDay := filterDay(day, appointments)

	occupiedMinutes := 0
	for _, appt := range sameDay {
		occupiedMinutes += int(appt.Duration().Minutes())
	}

	total := e.window.Minutes()
	available := total - occupiedMinutes
	if available < 0 {
		available = 0
	}

	rate := 0.0
	if total > 0 {
		rate = float64(occupiedMinutes) / float64(total)
	}

	return Forecast{
		TotalEvents:      len(sameDay),
		OccupiedMinutes:  occupiedMinutes,
		AvailableMinutes: available,
		OccupancyRate:    rate,
		Recommendation:   recommendationFor(rate),
	}
}

func recommendationFor(rate float64) Recommendation {
	switch {
	case rate > HighOccupancyThreshold:
		return RecommendationHigh
	case rate > MediumOccupancyThreshold:
		return RecommendationMedium
	default:
		return RecommendationLow
	}
}

func occupied(slotStart, slotEnd time.Time, appointments []*model.Appointment) bool {
	for _, appt := range appointments {
		// Half-open overlap: boundary touches do not occupy.
		if appt.StartTime.Before(slotEnd) && appt.EndTime.After(slotStart) {
			return true
		}
	}
	return false
}

func filterDay(day time.Time, appointments []*model.Appointment) []*model.Appointment {
	dayStart, dayEnd := timegrid.DayBounds(day)
	var same []*model.Appointment
	for _, appt := range appointments {
		if !appt.StartTime.Before(dayStart) && appt.StartTime.Before(dayEnd) {
			same = append(same, appt)
		}
	}
	return same
}
