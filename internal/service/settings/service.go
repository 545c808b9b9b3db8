package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/repository"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/pricing"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
)

const (
	cacheTTL             = 15 * time.Minute
	cacheCleanupInterval = 1 * time.Hour
)

// Service reads the practice settings record. The record is read-mostly so
// lookups go through a small TTL cache.
type Service struct {
	repo  repository.SettingsRepository
	cache *cache.Cache
}

func NewService(repo repository.SettingsRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cacheCleanupInterval),
	}
}

// Get returns the settings of the given owner. A missing row is not an
// error: pricing falls back to zero defaults, so an empty record is returned.
func (s *Service) Get(ctx context.Context, ownerID uuid.UUID) (*model.Settings, error) {
	key := ownerID.String()
	if cached, found := s.cache.Get(key); found {
		return cached.(*model.Settings), nil
	}

	settings, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Debug().Str("owner_id", key).Msg("no settings record, using empty defaults")
			settings = &model.Settings{OwnerID: ownerID, Values: model.JSONMap{}}
		} else {
			return nil, err
		}
	}

	s.cache.Set(key, settings, cache.DefaultExpiration)
	return settings, nil
}

// Invalidate drops the cached record for an owner.
func (s *Service) Invalidate(ownerID uuid.UUID) {
	s.cache.Delete(ownerID.String())
}

// DefaultAmount resolves the default price for a treatment/price-type pair.
func (s *Service) DefaultAmount(ctx context.Context, ownerID uuid.UUID, treatment model.TreatmentType, price model.PriceType) (float64, error) {
	settings, err := s.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return pricing.Resolve(treatment, price, settings.Values), nil
}

// EffectiveAmount returns the appointment's explicit amount when set (zero
// included), otherwise the resolved default.
func (s *Service) EffectiveAmount(ctx context.Context, ownerID uuid.UUID, appt *model.Appointment) (float64, error) {
	settings, err := s.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return pricing.EffectiveAmount(appt, settings.Values), nil
}
