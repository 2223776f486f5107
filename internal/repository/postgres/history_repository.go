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

const historyColumns = `
	id, crop_id, total_available_kg, total_reserved_kg, total_sold_kg,
	remaining_kg, avg_price_per_kg, min_price_per_kg, max_price_per_kg,
	active_listings_count, recorded_at`

type historyRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Insert(ctx context.Context, history *domain.StockHistory) error {
	query := `
		INSERT INTO stock_history (
			crop_id, total_available_kg, total_reserved_kg, total_sold_kg,
			remaining_kg, avg_price_per_kg, min_price_per_kg, max_price_per_kg,
			active_listings_count, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, recorded_at`

	if err := r.db.QueryRowContext(ctx, query,
		history.CropID,
		history.TotalAvailableKg,
		history.TotalReservedKg,
		history.TotalSoldKg,
		history.RemainingKg,
		history.AvgPricePerKg,
		history.MinPricePerKg,
		history.MaxPricePerKg,
		history.ActiveListingsCount,
	).Scan(&history.ID, &history.RecordedAt); err != nil {
		return fmt.Errorf("failed to insert stock history: %w", err)
	}

	return nil
}

func (r *historyRepository) Latest(ctx context.Context, cropID int64, since time.Time) (*domain.StockHistory, error) {
	query := `SELECT ` + historyColumns + `
		FROM stock_history
		WHERE crop_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at DESC
		LIMIT 1`

	var history domain.StockHistory
	if err := sqlx.GetContext(ctx, r.db, &history, query, cropID, since); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest stock history: %w", err)
	}

	return &history, nil
}

func (r *historyRepository) List(ctx context.Context, cropID int64, since time.Time) ([]domain.StockHistory, error) {
	query := `SELECT ` + historyColumns + `
		FROM stock_history
		WHERE crop_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC`

	var histories []domain.StockHistory
	if err := sqlx.SelectContext(ctx, r.db, &histories, query, cropID, since); err != nil {
		return nil, fmt.Errorf("failed to list stock history: %w", err)
	}

	return histories, nil
}
