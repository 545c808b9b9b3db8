package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
)

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT id, name, phone FROM patients WHERE id = $1`

	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Persistence("failed to get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Patient, error) {
	result := make(map[uuid.UUID]*model.Patient, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, phone FROM patients WHERE id IN (?)`, ids)
	if err != nil {
		return nil, apperrors.Persistence("failed to build patient query", err)
	}
	query = r.db.Rebind(query)

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, apperrors.Persistence("failed to list patients", err)
	}
	for _, p := range patients {
		result[p.ID] = p
	}
	return result, nil
}
