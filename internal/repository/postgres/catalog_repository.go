package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
)

// catalogRepository reads marketplace tables owned by other services:
// crops, listings, lots, production plans and users.
type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetCrop(ctx context.Context, cropID int64) (*domain.CropInfo, error) {
	query := `
		SELECT id, name, perishability_days, base_price_per_kg, is_active
		FROM crops
		WHERE id = $1`

	var crop domain.CropInfo
	if err := sqlx.GetContext(ctx, r.db, &crop, query, cropID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get crop: %w", err)
	}

	return &crop, nil
}

func (r *catalogRepository) ListActiveCrops(ctx context.Context) ([]domain.CropInfo, error) {
	query := `
		SELECT id, name, perishability_days, base_price_per_kg, is_active
		FROM crops
		WHERE is_active = TRUE
		ORDER BY id`

	var crops []domain.CropInfo
	if err := sqlx.SelectContext(ctx, r.db, &crops, query); err != nil {
		return nil, fmt.Errorf("failed to list crops: %w", err)
	}

	return crops, nil
}

func (r *catalogRepository) GetListingCrop(ctx context.Context, listingID int64) (int64, error) {
	query := `
		SELECT pp.crop_id
		FROM listings l
		JOIN lots lo ON lo.id = l.lot_id
		JOIN production_plans pp ON pp.id = lo.plan_id
		WHERE l.id = $1`

	var cropID int64
	if err := r.db.GetContext(ctx, &cropID, query, listingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to resolve listing crop: %w", err)
	}

	return cropID, nil
}

func (r *catalogRepository) GetMarketSupply(ctx context.Context, cropID int64) (*domain.MarketSupply, error) {
	query := `
		SELECT
			COALESCE(SUM(lo.available_kg), 0) AS total_available_kg,
			COALESCE(SUM(lo.reserved_kg), 0) AS total_reserved_kg,
			COALESCE(SUM(lo.sold_kg), 0) AS total_sold_kg,
			COUNT(l.id) AS active_listings_count,
			AVG(l.sell_price_per_kg) AS avg_price_per_kg,
			MIN(l.sell_price_per_kg) AS min_price_per_kg,
			MAX(l.sell_price_per_kg) AS max_price_per_kg
		FROM lots lo
		JOIN listings l ON l.lot_id = lo.id
		JOIN production_plans pp ON pp.id = lo.plan_id
		WHERE pp.crop_id = $1
			AND lo.current_status = 'available'
			AND l.is_active = TRUE`

	var supply domain.MarketSupply
	if err := sqlx.GetContext(ctx, r.db, &supply, query, cropID); err != nil {
		return nil, fmt.Errorf("failed to aggregate market supply: %w", err)
	}

	return &supply, nil
}

func (r *catalogRepository) GetCurrentAvgPrice(ctx context.Context, cropID int64) (*float64, error) {
	query := `
		SELECT AVG(l.sell_price_per_kg)
		FROM listings l
		JOIN lots lo ON lo.id = l.lot_id
		JOIN production_plans pp ON pp.id = lo.plan_id
		WHERE pp.crop_id = $1 AND l.is_active = TRUE`

	var price *float64
	if err := r.db.GetContext(ctx, &price, query, cropID); err != nil {
		return nil, fmt.Errorf("failed to average listing price: %w", err)
	}

	return price, nil
}

func (r *catalogRepository) ListUpcomingHarvests(ctx context.Context, cropID int64, from, to time.Time) ([]domain.HarvestPlan, error) {
	query := `
		SELECT id AS plan_id, crop_id, status,
			expected_harvest_window_start AS window_start,
			expected_yield_kg
		FROM production_plans
		WHERE crop_id = $1
			AND status IN ('growing', 'harvest_ready', 'harvesting')
			AND expected_harvest_window_start IS NOT NULL
			AND expected_harvest_window_start >= $2
			AND expected_harvest_window_start <= $3
		ORDER BY expected_harvest_window_start`

	var plans []domain.HarvestPlan
	if err := sqlx.SelectContext(ctx, r.db, &plans, query, cropID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list upcoming harvests: %w", err)
	}

	return plans, nil
}

func (r *catalogRepository) GetBuyerContact(ctx context.Context, buyerID int64) (*domain.BuyerContact, error) {
	query := `
		SELECT id AS buyer_id, email, phone
		FROM users
		WHERE id = $1`

	var contact domain.BuyerContact
	if err := sqlx.GetContext(ctx, r.db, &contact, query, buyerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get buyer contact: %w", err)
	}

	return &contact, nil
}
