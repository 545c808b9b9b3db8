// Package drag is the finite-state machine behind interactive rescheduling:
// pointer events in, candidate times and a single persisted write out.
package drag

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/timegrid"
)

// DefaultGranularity is the drop rounding step.
const DefaultGranularity = 5 * time.Minute

var (
	ErrDragInProgress = errors.New("a drag session is already active")
	ErrNotDragging    = errors.New("no active drag session")
	ErrWrongPointer   = errors.New("event belongs to another pointer")
)

type State int

const (
	Idle State = iota
	Dragging
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Store is the persistence write needed on drop.
type Store interface {
	UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error
}

type Config struct {
	Window      timegrid.Window
	Granularity time.Duration
}

// Commit reports the persisted result of a drop.
type Commit struct {
	ID    uuid.UUID `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Rescheduler converts pointer displacement into a candidate start time,
// applies it optimistically and persists on drop. One session at a time; a
// pointer-id check keeps a session from reacting to another pointer's events.
type Rescheduler struct {
	store Store
	cfg   Config

	mu        sync.Mutex
	state     State
	pointerID string
	apptID    uuid.UUID
	origStart time.Time
	origEnd   time.Time
	candidate time.Time
}

func New(store Store, cfg Config) *Rescheduler {
	if cfg.Granularity <= 0 {
		cfg.Granularity = DefaultGranularity
	}
	return &Rescheduler{store: store, cfg: cfg, state: Idle}
}

func (r *Rescheduler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Begin starts a drag session on the given appointment, capturing its
// original times for rollback.
func (r *Rescheduler) Begin(pointerID string, appt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Dragging {
		return ErrDragInProgress
	}

	r.state = Dragging
	r.pointerID = pointerID
	r.apptID = appt.ID
	r.origStart = appt.StartTime
	r.origEnd = appt.EndTime
	r.candidate = appt.StartTime
	return nil
}

// Move computes the candidate start for the given pointer displacement,
// clamped so the whole interval stays inside the visible window. Nothing is
// persisted. Events from other pointers are ignored.
func (r *Rescheduler) Move(pointerID string, deltaMinutes int) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Dragging {
		return time.Time{}, ErrNotDragging
	}
	if pointerID != r.pointerID {
		return time.Time{}, ErrWrongPointer
	}

	r.candidate = r.clamp(r.origStart.Add(time.Duration(deltaMinutes) * time.Minute))
	return r.candidate, nil
}

// Candidate returns the current optimistic start time of the session.
func (r *Rescheduler) Candidate() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidate
}

// Drop rounds the candidate to the configured granularity and issues the one
// persistence write, duration preserved. On a failed write the session ends
// Cancelled and the caller must reload the affected range from storage.
func (r *Rescheduler) Drop(ctx context.Context, pointerID string) (*Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Dragging {
		return nil, ErrNotDragging
	}
	if pointerID != r.pointerID {
		return nil, ErrWrongPointer
	}

	start := r.clamp(timegrid.RoundToGranularity(r.candidate, r.cfg.Granularity))
	end := start.Add(r.origEnd.Sub(r.origStart))

	if err := r.store.UpdateTimes(ctx, r.apptID, start, end); err != nil {
		r.state = Cancelled
		return nil, err
	}

	r.state = Committed
	return &Commit{ID: r.apptID, Start: start, End: end}, nil
}

// Cancel ends the session without persisting; the original times stand.
func (r *Rescheduler) Cancel(pointerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Dragging {
		return ErrNotDragging
	}
	if pointerID != r.pointerID {
		return ErrWrongPointer
	}

	r.state = Cancelled
	r.candidate = r.origStart
	return nil
}

func (r *Rescheduler) clamp(start time.Time) time.Time {
	duration := r.origEnd.Sub(r.origStart)

	windowStart := r.cfg.Window.StartOn(r.origStart)
	windowEnd := r.cfg.Window.EndOn(r.origStart)

	if start.Before(windowStart) {
		return windowStart
	}
	if start.Add(duration).After(windowEnd) {
		return windowEnd.Add(-duration)
	}
	return start
}
