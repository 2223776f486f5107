package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
)

// ErrInvalidThreshold rejects non-positive stock thresholds.
var ErrInvalidThreshold = errors.New("min_stock_threshold_kg must be positive")

// PreferenceService manages a buyer's per-crop monitoring preferences.
type PreferenceService struct {
	prefs   repository.PreferenceRepository
	catalog repository.CatalogRepository
}

func NewPreferenceService(prefs repository.PreferenceRepository, catalog repository.CatalogRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs, catalog: catalog}
}

// Create registers a new preference. The crop must exist and a buyer can
// monitor a crop only once.
func (s *PreferenceService) Create(ctx context.Context, pref *domain.InventoryPreference) error {
	if err := s.validate(pref); err != nil {
		return err
	}
	if _, err := s.catalog.GetCrop(ctx, pref.CropID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("crop %d: %w", pref.CropID, repository.ErrNotFound)
		}
		return err
	}

	applyPreferenceDefaults(pref)
	return s.prefs.Create(ctx, pref)
}

// Update replaces a preference's settings. BuyerID scopes the update so one
// buyer can never touch another's rows.
func (s *PreferenceService) Update(ctx context.Context, pref *domain.InventoryPreference) error {
	if err := s.validate(pref); err != nil {
		return err
	}
	applyPreferenceDefaults(pref)
	return s.prefs.Update(ctx, pref)
}

func (s *PreferenceService) Delete(ctx context.Context, buyerID, preferenceID int64) error {
	return s.prefs.Delete(ctx, buyerID, preferenceID)
}

func (s *PreferenceService) Get(ctx context.Context, buyerID, preferenceID int64) (*domain.InventoryPreference, error) {
	return s.prefs.GetByID(ctx, buyerID, preferenceID)
}

func (s *PreferenceService) List(ctx context.Context, buyerID int64) ([]domain.InventoryPreference, error) {
	return s.prefs.ListByBuyer(ctx, buyerID)
}

func (s *PreferenceService) validate(pref *domain.InventoryPreference) error {
	if pref.MinStockThresholdKg <= 0 {
		return ErrInvalidThreshold
	}
	return nil
}

func applyPreferenceDefaults(pref *domain.InventoryPreference) {
	if pref.DaysBeforeHarvestAlert <= 0 {
		pref.DaysBeforeHarvestAlert = 7
	}
	if pref.DaysAfterHarvestAlert <= 0 {
		pref.DaysAfterHarvestAlert = 30
	}
	if pref.AlertFrequency == "" {
		pref.AlertFrequency = "daily"
	}
}
