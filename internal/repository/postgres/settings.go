package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
)

func (r *settingsRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Settings, error) {
	query := `
		SELECT owner_id, values, updated_at
		FROM practice_settings
		WHERE owner_id = $1
	`
	var settings model.Settings
	err := r.db.GetContext(ctx, &settings, query, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("settings", err)
		}
		return nil, apperrors.Persistence("failed to get settings", err)
	}
	return &settings, nil
}
