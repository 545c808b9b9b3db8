package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/repository"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/availability"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/recurrence"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/timegrid"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/service/settings"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
	"github.com/turchettamarco/gestionale-fisio-sub002/pkg/metrics"
)

// Business rules
const (
	MinDomicileAddressLen = 5
	MoveGranularity       = 5 * time.Minute
)

type Service struct {
	repo        repository.AppointmentRepository
	settingsSvc *settings.Service
	engine      *availability.Engine
	window      timegrid.Window
	ownerID     uuid.UUID
	metrics     *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, settingsSvc *settings.Service, window timegrid.Window, ownerID uuid.UUID, m *metrics.Metrics) *Service {
	return &Service{
		repo:        repo,
		settingsSvc: settingsSvc,
		engine:      availability.NewEngine(window),
		window:      window,
		ownerID:     ownerID,
		metrics:     m,
	}
}

// -- creation --------------------------------------------------------------

func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	apt := appointmentFromCreate(req)

	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}
	apt.Status = status
	apt.IsPaid = derivePaid(status)

	if err := s.validateAppointment(apt); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.metrics.AppointmentsCreated.WithLabelValues("single").Inc()
	return apt, nil
}

// GenerateRecurrence expands the request into a series and inserts it in one
// batch. Validation failures, including the occurrence cap, happen before any
// persistence call.
func (s *Service) GenerateRecurrence(ctx context.Context, req *model.RecurrenceRequest) ([]*model.Appointment, error) {
	s.metrics.RecurrenceRequests.Inc()

	seed := appointmentFromRecurrence(req)
	seed.Status = model.AppointmentStatusBooked
	if err := s.validateAppointment(seed); err != nil {
		s.metrics.RecurrenceRejected.Inc()
		return nil, err
	}

	starts, err := recurrence.Generate(recurrence.Request{
		SeedStart: req.StartTime,
		SeedEnd:   req.EndTime,
		Weekdays:  req.Weekdays,
		Until:     req.Until,
	})
	if err != nil {
		s.metrics.RecurrenceRejected.Inc()
		return nil, apperrors.Validationf("invalid recurrence: %v", err)
	}

	duration := req.EndTime.Sub(req.StartTime)
	series := make([]*model.Appointment, 0, len(starts))
	for _, start := range starts {
		occ := *seed
		occ.ID = uuid.New()
		occ.StartTime = start
		occ.EndTime = start.Add(duration)
		series = append(series, &occ)
	}

	if err := s.repo.CreateBatch(ctx, series); err != nil {
		return nil, fmt.Errorf("failed to insert recurrence series: %w", err)
	}

	s.metrics.RecurrenceOccurrences.Observe(float64(len(series)))
	s.metrics.AppointmentsCreated.WithLabelValues("recurrence").Add(float64(len(series)))
	return series, nil
}

// -- mutation --------------------------------------------------------------

// Update applies the edit-form save. Whenever the status changes, the paid
// flag is derived from it in this one place.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.getForMutation(ctx, id, "update")
	if err != nil {
		return nil, err
	}

	applyUpdate(apt, req)

	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		apt.Status = status
		apt.IsPaid = derivePaid(status)
	}

	if err := s.validateAppointment(apt); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

// ToggleDone flips an appointment between done and confirmed, deriving the
// paid flag from the resulting status.
func (s *Service) ToggleDone(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.getForMutation(ctx, id, "toggle")
	if err != nil {
		return nil, err
	}

	if apt.Status == model.AppointmentStatusDone {
		apt.Status = model.AppointmentStatusConfirmed
	} else {
		apt.Status = model.AppointmentStatusDone
	}
	apt.IsPaid = derivePaid(apt.Status)

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to toggle appointment: %w", err)
	}

	s.metrics.StatusToggles.Inc()
	return apt, nil
}

// Move is the drop side of a drag: round the new start, keep the duration,
// issue one time-pair write. On a failed write the caller must re-read the
// affected range; ReloadRange serves that.
func (s *Service) Move(ctx context.Context, id uuid.UUID, newStart time.Time) (*model.Appointment, error) {
	apt, err := s.getForMutation(ctx, id, "move")
	if err != nil {
		return nil, err
	}

	duration := apt.Duration()
	start := timegrid.RoundToGranularity(newStart, MoveGranularity)
	start = timegrid.ClampToWindow(start, s.window)
	end := start.Add(duration)

	if err := s.repo.UpdateTimes(ctx, id, start, end); err != nil {
		s.metrics.DragRollbacks.Inc()
		return nil, fmt.Errorf("failed to move appointment: %w", err)
	}

	s.metrics.DragCommits.Inc()
	apt.StartTime = start
	apt.EndTime = end
	return apt, nil
}

// Delete is hard and irreversible; cancellation is a status value, not a
// deletion. Deleting an id that is already gone is a warned no-op: the grid
// refreshes shortly anyway.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Warn().Str("appointment_id", id.String()).Msg("delete of missing appointment, ignoring")
			return nil
		}
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	s.metrics.AppointmentsDeleted.Inc()
	return nil
}

// -- reads -----------------------------------------------------------------

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListRange(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return s.repo.ListRange(ctx, from, to)
}

// ReloadRange re-reads the authoritative day range after a mutation so local
// state never drifts from storage.
func (s *Service) ReloadRange(ctx context.Context, day time.Time) ([]*model.Appointment, error) {
	from, to := timegrid.DayBounds(day)
	return s.repo.ListRange(ctx, from, to)
}

// ListUpcoming returns the next appointments from now, earliest first.
func (s *Service) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListRange(ctx, now, now.AddDate(0, 3, 0))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(appointments) > limit {
		appointments = appointments[:limit]
	}
	return appointments, nil
}

// AgendaEntry is an appointment placed on the week grid.
type AgendaEntry struct {
	Appointment *model.Appointment `json:"appointment"`
	Position    timegrid.Position  `json:"position"`
}

// AgendaDay is one visible day column with its placed appointments.
type AgendaDay struct {
	Date    time.Time     `json:"date"`
	Entries []AgendaEntry `json:"entries"`
}

// WeekAgenda returns the six visible days of day's week, Monday through
// Saturday, each with its appointments placed inside the visible-hour window.
func (s *Service) WeekAgenda(ctx context.Context, day time.Time) ([]AgendaDay, error) {
	days := timegrid.WeekOf(day)
	from := days[0]
	to := days[len(days)-1].AddDate(0, 0, 1)

	appointments, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	agenda := make([]AgendaDay, len(days))
	for i, d := range days {
		agenda[i] = AgendaDay{Date: d, Entries: []AgendaEntry{}}
	}
	for _, apt := range appointments {
		idx := timegrid.BucketIndexOf(apt.StartTime, timegrid.PeriodWeekday)
		if idx >= len(agenda) {
			continue // Sunday bookings never render on the grid
		}
		agenda[idx].Entries = append(agenda[idx].Entries, AgendaEntry{
			Appointment: apt,
			Position:    timegrid.PositionOf(apt.StartTime, apt.EndTime, s.window),
		})
	}
	return agenda, nil
}

// AvailableSlots recomputes the day's free candidate slots from storage.
func (s *Service) AvailableSlots(ctx context.Context, day time.Time) ([]availability.Slot, error) {
	appointments, err := s.ReloadRange(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableSlots(day, appointments), nil
}

func (s *Service) Forecast(ctx context.Context, day time.Time) (availability.Forecast, error) {
	appointments, err := s.ReloadRange(ctx, day)
	if err != nil {
		return availability.Forecast{}, err
	}
	return s.engine.Forecast(day, appointments), nil
}

// EffectiveAmount resolves the amount actually charged for an appointment.
func (s *Service) EffectiveAmount(ctx context.Context, apt *model.Appointment) (float64, error) {
	return s.settingsSvc.EffectiveAmount(ctx, s.ownerID, apt)
}

// -- helpers ---------------------------------------------------------------

func (s *Service) getForMutation(ctx context.Context, id uuid.UUID, op string) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Warn().Str("appointment_id", id.String()).Str("op", op).Msg("appointment no longer present")
		}
		return nil, err
	}
	return apt, nil
}

func (s *Service) validateAppointment(apt *model.Appointment) error {
	if !apt.EndTime.After(apt.StartTime) {
		return apperrors.Validation("end time must be after start time")
	}

	switch apt.Location {
	case model.LocationStudio:
		if apt.ClinicSite == "" {
			return apperrors.Validation("clinic site is required for studio appointments")
		}
	case model.LocationDomicile:
		if len(apt.DomicileAddress) < MinDomicileAddressLen {
			return apperrors.Validationf("domicile address must be at least %d characters", MinDomicileAddressLen)
		}
	default:
		return apperrors.Validationf("invalid location: %s", apt.Location)
	}

	if !model.IsValidStatus(apt.Status) {
		return apperrors.Validationf("invalid status: %s", apt.Status)
	}
	return nil
}

// normalizeStatus applies the single legacy alias and rejects anything
// outside the five allowed values. Empty defaults to booked.
func normalizeStatus(raw string) (model.AppointmentStatus, error) {
	if raw == "" {
		return model.AppointmentStatusBooked, nil
	}
	status := model.NormalizeStatus(model.AppointmentStatus(raw))
	if !model.IsValidStatus(status) {
		return "", apperrors.Validationf("invalid status: %s", raw)
	}
	return status, nil
}

func derivePaid(status model.AppointmentStatus) bool {
	return status == model.AppointmentStatusDone
}

func appointmentFromCreate(req *model.CreateAppointmentRequest) *model.Appointment {
	return &model.Appointment{
		ID:              uuid.New(),
		PatientID:       req.PatientID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        model.Location(req.Location),
		ClinicSite:      req.ClinicSite,
		DomicileAddress: req.DomicileAddress,
		TreatmentType:   model.TreatmentType(req.TreatmentType),
		PriceType:       model.PriceType(req.PriceType),
		Amount:          req.Amount,
		Notes:           req.Notes,
	}
}

func appointmentFromRecurrence(req *model.RecurrenceRequest) *model.Appointment {
	return &model.Appointment{
		PatientID:       req.PatientID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        model.Location(req.Location),
		ClinicSite:      req.ClinicSite,
		DomicileAddress: req.DomicileAddress,
		TreatmentType:   model.TreatmentType(req.TreatmentType),
		PriceType:       model.PriceType(req.PriceType),
		Amount:          req.Amount,
		Notes:           req.Notes,
	}
}

func applyUpdate(apt *model.Appointment, req *model.UpdateAppointmentRequest) {
	if req.StartTime != nil {
		apt.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		apt.EndTime = *req.EndTime
	}
	if req.Location != nil {
		apt.Location = model.Location(*req.Location)
	}
	if req.ClinicSite != nil {
		apt.ClinicSite = *req.ClinicSite
	}
	if req.DomicileAddress != nil {
		apt.DomicileAddress = *req.DomicileAddress
	}
	if req.TreatmentType != nil {
		apt.TreatmentType = model.TreatmentType(*req.TreatmentType)
	}
	if req.PriceType != nil {
		apt.PriceType = model.PriceType(*req.PriceType)
	}
	if req.Amount != nil {
		apt.Amount = req.Amount
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}
}
