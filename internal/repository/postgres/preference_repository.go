package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
)

const preferenceColumns = `
	id, buyer_id, crop_id, min_stock_threshold_kg, reorder_quantity_kg,
	max_stock_threshold_kg, days_before_harvest_alert, days_after_harvest_alert,
	average_monthly_consumption_kg, last_order_date, last_order_quantity_kg,
	enable_low_stock_alerts, enable_harvest_alerts, enable_price_alerts,
	alert_frequency, notification_channels, is_favorite, priority,
	created_at, updated_at`

type preferenceRepository struct {
	db *DB
}

func NewPreferenceRepository(db *DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Create(ctx context.Context, pref *domain.InventoryPreference) error {
	query := `
		INSERT INTO inventory_preferences (
			buyer_id, crop_id, min_stock_threshold_kg, reorder_quantity_kg,
			max_stock_threshold_kg, days_before_harvest_alert, days_after_harvest_alert,
			enable_low_stock_alerts, enable_harvest_alerts, enable_price_alerts,
			alert_frequency, notification_channels, is_favorite, priority,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		pref.BuyerID,
		pref.CropID,
		pref.MinStockThresholdKg,
		pref.ReorderQuantityKg,
		pref.MaxStockThresholdKg,
		pref.DaysBeforeHarvestAlert,
		pref.DaysAfterHarvestAlert,
		pref.EnableLowStockAlerts,
		pref.EnableHarvestAlerts,
		pref.EnablePriceAlerts,
		pref.AlertFrequency,
		pref.NotificationChannelsJSON,
		pref.IsFavorite,
		pref.Priority,
	).Scan(&pref.ID, &pref.CreatedAt, &pref.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return repository.ErrPreferenceExists
		}
		return fmt.Errorf("failed to create preference: %w", err)
	}

	return nil
}

func (r *preferenceRepository) Update(ctx context.Context, pref *domain.InventoryPreference) error {
	query := `
		UPDATE inventory_preferences SET
			min_stock_threshold_kg = $3,
			reorder_quantity_kg = $4,
			max_stock_threshold_kg = $5,
			days_before_harvest_alert = $6,
			days_after_harvest_alert = $7,
			average_monthly_consumption_kg = $8,
			last_order_date = $9,
			last_order_quantity_kg = $10,
			enable_low_stock_alerts = $11,
			enable_harvest_alerts = $12,
			enable_price_alerts = $13,
			alert_frequency = $14,
			notification_channels = $15,
			is_favorite = $16,
			priority = $17,
			updated_at = NOW()
		WHERE id = $1 AND buyer_id = $2`

	res, err := r.db.ExecContext(ctx, query,
		pref.ID,
		pref.BuyerID,
		pref.MinStockThresholdKg,
		pref.ReorderQuantityKg,
		pref.MaxStockThresholdKg,
		pref.DaysBeforeHarvestAlert,
		pref.DaysAfterHarvestAlert,
		pref.AvgMonthlyConsumptionKg,
		pref.LastOrderDate,
		pref.LastOrderQuantityKg,
		pref.EnableLowStockAlerts,
		pref.EnableHarvestAlerts,
		pref.EnablePriceAlerts,
		pref.AlertFrequency,
		pref.NotificationChannelsJSON,
		pref.IsFavorite,
		pref.Priority,
	)
	if err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *preferenceRepository) Delete(ctx context.Context, buyerID, preferenceID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM inventory_preferences WHERE id = $1 AND buyer_id = $2`,
		preferenceID, buyerID)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *preferenceRepository) GetByID(ctx context.Context, buyerID, preferenceID int64) (*domain.InventoryPreference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM inventory_preferences
		WHERE id = $1 AND buyer_id = $2`

	var pref domain.InventoryPreference
	if err := sqlx.GetContext(ctx, r.db, &pref, query, preferenceID, buyerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return &pref, nil
}

func (r *preferenceRepository) Get(ctx context.Context, buyerID, cropID int64) (*domain.InventoryPreference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM inventory_preferences
		WHERE buyer_id = $1 AND crop_id = $2`

	var pref domain.InventoryPreference
	if err := sqlx.GetContext(ctx, r.db, &pref, query, buyerID, cropID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return &pref, nil
}

func (r *preferenceRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]domain.InventoryPreference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM inventory_preferences
		WHERE buyer_id = $1
		ORDER BY priority DESC, crop_id`

	var prefs []domain.InventoryPreference
	if err := sqlx.SelectContext(ctx, r.db, &prefs, query, buyerID); err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}

	return prefs, nil
}

func (r *preferenceRepository) ListForAlerts(ctx context.Context, buyerID *int64) ([]domain.InventoryPreference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM inventory_preferences
		WHERE (enable_low_stock_alerts = TRUE OR enable_harvest_alerts = TRUE)
			AND ($1::bigint IS NULL OR buyer_id = $1)
		ORDER BY buyer_id, crop_id`

	var prefs []domain.InventoryPreference
	if err := sqlx.SelectContext(ctx, r.db, &prefs, query, buyerID); err != nil {
		return nil, fmt.Errorf("failed to list alert preferences: %w", err)
	}

	return prefs, nil
}

func (r *preferenceRepository) ListForPriceAlerts(ctx context.Context, buyerID *int64) ([]domain.InventoryPreference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM inventory_preferences
		WHERE enable_price_alerts = TRUE
			AND ($1::bigint IS NULL OR buyer_id = $1)
		ORDER BY buyer_id, crop_id`

	var prefs []domain.InventoryPreference
	if err := sqlx.SelectContext(ctx, r.db, &prefs, query, buyerID); err != nil {
		return nil, fmt.Errorf("failed to list price alert preferences: %w", err)
	}

	return prefs, nil
}
