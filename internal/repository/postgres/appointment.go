package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
)

const appointmentColumns = `
	id, patient_id, start_time, end_time, status, is_paid,
	location, clinic_site, domicile_address, treatment_type, price_type,
	amount, notes, reminder_sent_at, whatsapp_sent_at, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, start_time, end_time, status, is_paid,
			location, clinic_site, domicile_address, treatment_type, price_type,
			amount, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.IsPaid,
		appointment.Location,
		appointment.ClinicSite,
		appointment.DomicileAddress,
		appointment.TreatmentType,
		appointment.PriceType,
		appointment.Amount,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return apperrors.Persistence("failed to create appointment", err)
	}
	return nil
}

// CreateBatch inserts a recurrence series in one transaction so a failed row
// never leaves a partial series behind.
func (r *appointmentRepository) CreateBatch(ctx context.Context, appointments []*model.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Persistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO appointments (
			id, patient_id, start_time, end_time, status, is_paid,
			location, clinic_site, domicile_address, treatment_type, price_type,
			amount, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	now := time.Now()
	for _, appointment := range appointments {
		if appointment.ID == uuid.Nil {
			appointment.ID = uuid.New()
		}
		appointment.CreatedAt = now
		appointment.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.PatientID,
			appointment.StartTime,
			appointment.EndTime,
			appointment.Status,
			appointment.IsPaid,
			appointment.Location,
			appointment.ClinicSite,
			appointment.DomicileAddress,
			appointment.TreatmentType,
			appointment.PriceType,
			appointment.Amount,
			appointment.Notes,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		); err != nil {
			return apperrors.Persistence("failed to insert recurrence batch", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Persistence("failed to commit recurrence batch", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Persistence("failed to get appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, status = $3, is_paid = $4,
			location = $5, clinic_site = $6, domicile_address = $7,
			treatment_type = $8, price_type = $9, amount = $10, notes = $11,
			updated_at = $12
		WHERE id = $13
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.IsPaid,
		appointment.Location,
		appointment.ClinicSite,
		appointment.DomicileAddress,
		appointment.TreatmentType,
		appointment.PriceType,
		appointment.Amount,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return apperrors.Persistence("failed to update appointment", err)
	}
	return checkAffected(result)
}

// UpdateTimes is the drag-drop write path: a single partial update of the
// time pair, nothing else.
func (r *appointmentRepository) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, start, end, time.Now(), id)
	if err != nil {
		return apperrors.Persistence("failed to reschedule appointment", err)
	}
	return checkAffected(result)
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM appointments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Persistence("failed to delete appointment", err)
	}
	return checkAffected(result)
}

// ListRange returns appointments with start_time in [from, to), ordered by
// start time.
func (r *appointmentRepository) ListRange(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, from, to)
	if err != nil {
		return nil, apperrors.Persistence("failed to list appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.markSent(ctx, "reminder_sent_at", id, at)
}

func (r *appointmentRepository) MarkWhatsappSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.markSent(ctx, "whatsapp_sent_at", id, at)
}

func (r *appointmentRepository) markSent(ctx context.Context, column string, id uuid.UUID, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET %s = $1, updated_at = $2
		WHERE id = $3
	`, column)

	result, err := r.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		return apperrors.Persistence("failed to mark send timestamp", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Persistence("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}
