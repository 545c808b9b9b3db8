package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/export"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/repository"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/service/appointment"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
	"github.com/turchettamarco/gestionale-fisio-sub002/pkg/metrics"
)

// ReminderHorizon is how far ahead the reminder worklist looks.
const ReminderHorizon = 48 * time.Hour

// Reminder pairs an upcoming appointment with its ready-made WhatsApp link.
type Reminder struct {
	Appointment *model.Appointment `json:"appointment"`
	PatientName string             `json:"patient_name"`
	Link        string             `json:"link"`
}

type Service struct {
	appointments   *appointment.Service
	appointmentRep repository.AppointmentRepository
	patients       repository.PatientRepository
	template       string
	metrics        *metrics.Metrics
}

func NewService(appointments *appointment.Service, appointmentRep repository.AppointmentRepository, patients repository.PatientRepository, template string, m *metrics.Metrics) *Service {
	return &Service{
		appointments:   appointments,
		appointmentRep: appointmentRep,
		patients:       patients,
		template:       template,
		metrics:        m,
	}
}

// CSVRange renders the CSV report for all appointments starting in [from, to).
// Amounts fall back to the configured default prices when unset.
func (s *Service) CSVRange(ctx context.Context, from, to time.Time) (string, error) {
	appointments, err := s.appointments.ListRange(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("failed to list appointments for export: %w", err)
	}

	patients, err := s.patientsFor(ctx, appointments)
	if err != nil {
		return "", err
	}

	amounts := make(map[uuid.UUID]float64, len(appointments))
	for _, appt := range appointments {
		amount, err := s.appointments.EffectiveAmount(ctx, appt)
		if err != nil {
			return "", fmt.Errorf("failed to resolve amount: %w", err)
		}
		amounts[appt.ID] = amount
	}

	s.metrics.Exports.WithLabelValues("csv").Inc()
	return export.CSV(appointments, patients, func(a *model.Appointment) float64 {
		return amounts[a.ID]
	}), nil
}

// CalendarLink builds the Google Calendar quick-add URL for one appointment.
func (s *Service) CalendarLink(ctx context.Context, id uuid.UUID) (string, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return "", err
	}

	s.metrics.Exports.WithLabelValues("calendar").Inc()
	return export.CalendarURL(appt, s.patientName(ctx, appt)), nil
}

// WhatsAppLink builds the reminder deep link and records that it was
// generated. A patient with a phone number is required.
func (s *Service) WhatsAppLink(ctx context.Context, id uuid.UUID, now time.Time) (string, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if appt.PatientID == nil {
		return "", apperrors.Validation("appointment has no patient")
	}

	patient, err := s.patients.Get(ctx, *appt.PatientID)
	if err != nil {
		return "", err
	}
	if patient.Phone == "" {
		return "", apperrors.Validation("patient has no phone number")
	}

	link := export.WhatsAppLink(patient.Phone, s.template, export.MessageDataFor(appt, patient.Name, now))

	if err := s.appointmentRep.MarkWhatsappSent(ctx, id, now); err != nil {
		return "", fmt.Errorf("failed to record whatsapp reminder: %w", err)
	}

	s.metrics.Exports.WithLabelValues("whatsapp").Inc()
	return link, nil
}

// PendingReminders lists appointments inside the reminder horizon that have
// not been reminded yet, each with its WhatsApp link when a phone is known.
func (s *Service) PendingReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	appointments, err := s.appointments.ListRange(ctx, now, now.Add(ReminderHorizon))
	if err != nil {
		return nil, err
	}

	patients, err := s.patientsFor(ctx, appointments)
	if err != nil {
		return nil, err
	}

	reminders := make([]Reminder, 0, len(appointments))
	for _, appt := range appointments {
		if appt.ReminderSentAt != nil || appt.Status == model.AppointmentStatusCancelled {
			continue
		}

		r := Reminder{Appointment: appt}
		if appt.PatientID != nil {
			if p, ok := patients[*appt.PatientID]; ok {
				r.PatientName = p.Name
				if p.Phone != "" {
					r.Link = export.WhatsAppLink(p.Phone, s.template, export.MessageDataFor(appt, p.Name, now))
				}
			}
		}
		reminders = append(reminders, r)
	}
	return reminders, nil
}

// MarkReminderSent records that the practitioner sent the reminder.
func (s *Service) MarkReminderSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	if err := s.appointmentRep.MarkReminderSent(ctx, id, now); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func (s *Service) patientsFor(ctx context.Context, appointments []*model.Appointment) (map[uuid.UUID]*model.Patient, error) {
	ids := make([]uuid.UUID, 0, len(appointments))
	seen := make(map[uuid.UUID]bool, len(appointments))
	for _, appt := range appointments {
		if appt.PatientID != nil && !seen[*appt.PatientID] {
			seen[*appt.PatientID] = true
			ids = append(ids, *appt.PatientID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*model.Patient{}, nil
	}

	patients, err := s.patients.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}
	return patients, nil
}

func (s *Service) patientName(ctx context.Context, appt *model.Appointment) string {
	if appt.PatientID == nil {
		return ""
	}
	patient, err := s.patients.Get(ctx, *appt.PatientID)
	if err != nil {
		return ""
	}
	return patient.Name
}
