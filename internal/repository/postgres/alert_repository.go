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

const alertColumns = `
	id, buyer_id, crop_id, listing_id, lot_id, alert_type, severity, status,
	title, message, alert_data, action_url, action_text,
	acknowledged_at, resolved_at, created_at, updated_at, expires_at`

type alertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) InTx(ctx context.Context, fn func(tx repository.AlertTxRepository) error) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&alertTxRepository{tx: tx})
	})
}

func (r *alertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]domain.InventoryAlert, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + alertColumns + `
		FROM inventory_alerts
		WHERE buyer_id = $1
			AND ($2::text IS NULL OR status = $2)
			AND ($3::text IS NULL OR alert_type = $3)
			AND ($4 OR expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT $5`

	var alerts []domain.InventoryAlert
	if err := sqlx.SelectContext(ctx, r.db, &alerts, query,
		filter.BuyerID, filter.Status, filter.AlertType, filter.IncludeExpired, limit); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	return alerts, nil
}

func (r *alertRepository) GetByID(ctx context.Context, buyerID, alertID int64) (*domain.InventoryAlert, error) {
	query := `SELECT ` + alertColumns + `
		FROM inventory_alerts
		WHERE id = $1 AND buyer_id = $2`

	var alert domain.InventoryAlert
	if err := sqlx.GetContext(ctx, r.db, &alert, query, alertID, buyerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return &alert, nil
}

func (r *alertRepository) SetStatus(ctx context.Context, buyerID, alertID int64, status domain.AlertStatus, at time.Time) error {
	query := `
		UPDATE inventory_alerts SET
			status = $3,
			acknowledged_at = CASE WHEN $3 = 'acknowledged' THEN $4 ELSE acknowledged_at END,
			resolved_at = CASE WHEN $3 IN ('resolved', 'dismissed') THEN $4 ELSE resolved_at END,
			updated_at = NOW()
		WHERE id = $1 AND buyer_id = $2`

	res, err := r.db.ExecContext(ctx, query, alertID, buyerID, status, at)
	if err != nil {
		return fmt.Errorf("failed to set alert status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

type alertTxRepository struct {
	tx *sqlx.Tx
}

func (r *alertTxRepository) FindActiveForUpdate(ctx context.Context, buyerID, cropID int64, alertType domain.AlertType) (*domain.InventoryAlert, error) {
	query := `SELECT ` + alertColumns + `
		FROM inventory_alerts
		WHERE buyer_id = $1 AND crop_id = $2 AND alert_type = $3 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`

	var alert domain.InventoryAlert
	if err := r.tx.GetContext(ctx, &alert, query, buyerID, cropID, alertType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active alert: %w", err)
	}

	return &alert, nil
}

func (r *alertTxRepository) Insert(ctx context.Context, alert *domain.InventoryAlert) error {
	query := `
		INSERT INTO inventory_alerts (
			buyer_id, crop_id, listing_id, lot_id, alert_type, severity, status,
			title, message, alert_data, action_url, action_text,
			expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	if err := r.tx.QueryRowContext(ctx, query,
		alert.BuyerID,
		alert.CropID,
		alert.ListingID,
		alert.LotID,
		alert.AlertType,
		alert.Severity,
		alert.Status,
		alert.Title,
		alert.Message,
		alert.AlertDataJSON,
		alert.ActionURL,
		alert.ActionText,
		alert.ExpiresAt,
	).Scan(&alert.ID, &alert.CreatedAt, &alert.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

func (r *alertTxRepository) Update(ctx context.Context, alert *domain.InventoryAlert) error {
	query := `
		UPDATE inventory_alerts SET
			severity = $2,
			title = $3,
			message = $4,
			alert_data = $5,
			expires_at = $6,
			updated_at = NOW()
		WHERE id = $1`

	if _, err := r.tx.ExecContext(ctx, query,
		alert.ID,
		alert.Severity,
		alert.Title,
		alert.Message,
		alert.AlertDataJSON,
		alert.ExpiresAt,
	); err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	return nil
}
