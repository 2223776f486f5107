package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
)

const uniqueViolationCode = "23505"

const balanceColumns = `
	id, buyer_id, crop_id, current_quantity_kg, reserved_quantity_kg,
	purchase_date, expiry_date, shelf_life_days, batch_number, supplier_order_id,
	unit_cost_usd, total_value_usd, reorder_point_kg, safety_stock_kg,
	lead_time_days, average_daily_usage_kg, minimum_stock_cover_days,
	sales_intensity_code, inventory_turnover, days_of_inventory,
	is_active, is_expired, created_at, updated_at, last_movement_at`

type stockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) repository.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) InTx(ctx context.Context, fn func(tx repository.StockTxRepository) error) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&stockTxRepository{tx: tx})
	})
}

func (r *stockRepository) GetBalance(ctx context.Context, buyerID, cropID int64) (*domain.StockBalance, error) {
	query := `SELECT ` + balanceColumns + `
		FROM stock_balances
		WHERE buyer_id = $1 AND crop_id = $2
		ORDER BY is_active DESC, updated_at DESC
		LIMIT 1`

	var balance domain.StockBalance
	if err := sqlx.GetContext(ctx, r.db, &balance, query, buyerID, cropID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stock balance: %w", err)
	}

	return &balance, nil
}

func (r *stockRepository) ListBalances(ctx context.Context, buyerID int64, includeExpired bool) ([]domain.StockBalance, error) {
	query := `SELECT ` + balanceColumns + `
		FROM stock_balances
		WHERE buyer_id = $1 AND ($2 OR is_expired = FALSE)
		ORDER BY crop_id`

	var balances []domain.StockBalance
	if err := sqlx.SelectContext(ctx, r.db, &balances, query, buyerID, includeExpired); err != nil {
		return nil, fmt.Errorf("failed to list stock balances: %w", err)
	}

	return balances, nil
}

func (r *stockRepository) ListBalancesWithPreferences(ctx context.Context) ([]domain.StockBalance, error) {
	query := `SELECT ` + prefixedBalanceColumns("b") + `
		FROM stock_balances b
		JOIN inventory_preferences p
			ON p.buyer_id = b.buyer_id AND p.crop_id = b.crop_id
		WHERE b.is_active = TRUE
		ORDER BY b.buyer_id, b.crop_id`

	var balances []domain.StockBalance
	if err := sqlx.SelectContext(ctx, r.db, &balances, query); err != nil {
		return nil, fmt.Errorf("failed to list balances with preferences: %w", err)
	}

	return balances, nil
}

func (r *stockRepository) UpdateDerivedFields(ctx context.Context, balance *domain.StockBalance) error {
	query := `
		UPDATE stock_balances SET
			reorder_point_kg = $2,
			safety_stock_kg = $3,
			lead_time_days = $4,
			average_daily_usage_kg = $5,
			sales_intensity_code = $6,
			inventory_turnover = $7,
			days_of_inventory = $8,
			updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query,
		balance.ID,
		balance.ReorderPointKg,
		balance.SafetyStockKg,
		balance.LeadTimeDays,
		balance.AverageDailyUsageKg,
		balance.SalesIntensityCode,
		balance.InventoryTurnover,
		balance.DaysOfInventory,
	); err != nil {
		return fmt.Errorf("failed to update derived fields: %w", err)
	}

	return nil
}

func (r *stockRepository) SumConsumptionKg(ctx context.Context, buyerID, cropID int64, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(ABS(quantity_kg)), 0)
		FROM stock_movements
		WHERE buyer_id = $1 AND crop_id = $2
			AND movement_type = $3
			AND occurred_at >= $4`

	var total float64
	if err := r.db.GetContext(ctx, &total, query, buyerID, cropID, domain.MovementConsumption, since); err != nil {
		return 0, fmt.Errorf("failed to sum consumption: %w", err)
	}

	return total, nil
}

func (r *stockRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, balance_id, buyer_id, crop_id, movement_type, quantity_kg,
			unit_cost_usd, total_cost_usd, order_id, order_item_id, notes,
			occurred_at, created_at
		FROM stock_movements
		WHERE buyer_id = $1
			AND occurred_at >= $2
			AND ($3::bigint IS NULL OR crop_id = $3)
			AND ($4::text IS NULL OR movement_type = $4)
		ORDER BY occurred_at DESC
		LIMIT $5`

	var movements []domain.StockMovement
	if err := sqlx.SelectContext(ctx, r.db, &movements, query,
		filter.BuyerID, filter.Since, filter.CropID, filter.MovementType, limit); err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	return movements, nil
}

type stockTxRepository struct {
	tx *sqlx.Tx
}

func (r *stockTxRepository) GetActiveBalanceForUpdate(ctx context.Context, buyerID, cropID int64) (*domain.StockBalance, error) {
	query := `SELECT ` + balanceColumns + `
		FROM stock_balances
		WHERE buyer_id = $1 AND crop_id = $2 AND is_active = TRUE
		FOR UPDATE`

	var balance domain.StockBalance
	if err := r.tx.GetContext(ctx, &balance, query, buyerID, cropID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock stock balance: %w", err)
	}

	return &balance, nil
}

func (r *stockTxRepository) CreateBalance(ctx context.Context, balance *domain.StockBalance) error {
	query := `
		INSERT INTO stock_balances (
			buyer_id, crop_id, current_quantity_kg, reserved_quantity_kg,
			purchase_date, expiry_date, shelf_life_days, batch_number,
			supplier_order_id, unit_cost_usd, total_value_usd,
			lead_time_days, minimum_stock_cover_days, is_active, is_expired,
			last_movement_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	if err := r.tx.QueryRowContext(ctx, query,
		balance.BuyerID,
		balance.CropID,
		balance.CurrentQuantityKg,
		balance.ReservedQuantityKg,
		balance.PurchaseDate,
		balance.ExpiryDate,
		balance.ShelfLifeDays,
		balance.BatchNumber,
		balance.SupplierOrderID,
		balance.UnitCostUSD,
		balance.TotalValueUSD,
		balance.LeadTimeDays,
		balance.MinimumStockCoverDays,
		balance.IsActive,
		balance.IsExpired,
		balance.LastMovementAt,
	).Scan(&balance.ID, &balance.CreatedAt, &balance.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create stock balance: %w", err)
	}

	return nil
}

func (r *stockTxRepository) UpdateBalance(ctx context.Context, balance *domain.StockBalance) error {
	query := `
		UPDATE stock_balances SET
			current_quantity_kg = $2,
			reserved_quantity_kg = $3,
			purchase_date = $4,
			expiry_date = $5,
			shelf_life_days = $6,
			batch_number = $7,
			supplier_order_id = $8,
			unit_cost_usd = $9,
			total_value_usd = $10,
			is_active = $11,
			is_expired = $12,
			last_movement_at = $13,
			updated_at = NOW()
		WHERE id = $1`

	if _, err := r.tx.ExecContext(ctx, query,
		balance.ID,
		balance.CurrentQuantityKg,
		balance.ReservedQuantityKg,
		balance.PurchaseDate,
		balance.ExpiryDate,
		balance.ShelfLifeDays,
		balance.BatchNumber,
		balance.SupplierOrderID,
		balance.UnitCostUSD,
		balance.TotalValueUSD,
		balance.IsActive,
		balance.IsExpired,
		balance.LastMovementAt,
	); err != nil {
		return fmt.Errorf("failed to update stock balance: %w", err)
	}

	return nil
}

func (r *stockTxRepository) InsertMovement(ctx context.Context, movement *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (
			balance_id, buyer_id, crop_id, movement_type, quantity_kg,
			unit_cost_usd, total_cost_usd, order_id, order_item_id, notes,
			occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at`

	err := r.tx.QueryRowContext(ctx, query,
		movement.BalanceID,
		movement.BuyerID,
		movement.CropID,
		movement.MovementType,
		movement.QuantityKg,
		movement.UnitCostUSD,
		movement.TotalCostUSD,
		movement.OrderID,
		movement.OrderItemID,
		movement.Notes,
		movement.OccurredAt,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		// The partial unique index on (order_id, order_item_id) makes
		// order-delivery replays collide here.
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return repository.ErrDuplicateMovement
		}
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}

	return nil
}

func prefixedBalanceColumns(alias string) string {
	cols := []string{
		"id", "buyer_id", "crop_id", "current_quantity_kg", "reserved_quantity_kg",
		"purchase_date", "expiry_date", "shelf_life_days", "batch_number", "supplier_order_id",
		"unit_cost_usd", "total_value_usd", "reorder_point_kg", "safety_stock_kg",
		"lead_time_days", "average_daily_usage_kg", "minimum_stock_cover_days",
		"sales_intensity_code", "inventory_turnover", "days_of_inventory",
		"is_active", "is_expired", "created_at", "updated_at", "last_movement_at",
	}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}
