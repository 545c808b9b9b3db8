package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository handles appointment persistence. Rows are keyed by
	// an opaque id, queryable by [from, to) start-time range and ordered by
	// start time.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		CreateBatch(ctx context.Context, appointments []*model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListRange(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
		MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkWhatsappSent(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	// SettingsRepository reads the practice settings record; the scheduling
	// core never writes it.
	SettingsRepository interface {
		GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Settings, error)
	}

	// PatientRepository resolves patient references for exports; read-only.
	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Patient, error)
	}
)
