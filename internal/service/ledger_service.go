package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/metrics"
	"github.com/mundamarket/stock-engine/internal/repository"
)

// ErrInvalidQuantity rejects zero or negative movement magnitudes.
var ErrInvalidQuantity = errors.New("quantity_kg must be positive")

// ErrNoStock is returned when a stock-decreasing movement targets a buyer and
// crop with no active balance.
var ErrNoStock = errors.New("no active stock balance for crop")

// MovementInput is a single ledger submission. QuantityKg is always a
// positive magnitude; the movement type (and Decrease, for adjustments)
// fixes the direction.
type MovementInput struct {
	BuyerID       int64
	CropID        int64
	MovementType  domain.MovementType
	QuantityKg    float64
	Decrease      bool
	UnitCostUSD   *float64
	ShelfLifeDays *int
	BatchNumber   *string
	Notes         *string
	OrderID       *int64
	OrderItemID   *int64
	OccurredAt    *time.Time
}

// LedgerService owns all writes to stock balances and the movement ledger.
type LedgerService struct {
	stocks  repository.StockRepository
	prefs   repository.PreferenceRepository
	catalog repository.CatalogRepository
	now     func() time.Time
}

func NewLedgerService(stocks repository.StockRepository, prefs repository.PreferenceRepository, catalog repository.CatalogRepository) *LedgerService {
	return &LedgerService{stocks: stocks, prefs: prefs, catalog: catalog, now: time.Now}
}

// RecordMovement applies one movement inside a single transaction: the
// balance row is locked, the delta is clamped so the balance never goes
// negative, and the ledger row records the applied delta.
func (s *LedgerService) RecordMovement(ctx context.Context, in MovementInput) (*domain.StockBalance, *domain.StockMovement, error) {
	if in.QuantityKg <= 0 {
		return nil, nil, ErrInvalidQuantity
	}

	crop, err := s.catalog.GetCrop(ctx, in.CropID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("crop %d: %w", in.CropID, repository.ErrNotFound)
		}
		return nil, nil, err
	}

	delta := signedDelta(in)
	occurredAt := s.now()
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}

	var (
		balance  *domain.StockBalance
		movement *domain.StockMovement
	)

	err = s.stocks.InTx(ctx, func(tx repository.StockTxRepository) error {
		balance, err = tx.GetActiveBalanceForUpdate(ctx, in.BuyerID, in.CropID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if delta < 0 {
				return ErrNoStock
			}
			balance = &domain.StockBalance{
				BuyerID:               in.BuyerID,
				CropID:                in.CropID,
				LeadTimeDays:          metrics.DefaultLeadTimeDays,
				MinimumStockCoverDays: 7,
				IsActive:              true,
			}
			if err := tx.CreateBalance(ctx, balance); err != nil {
				return err
			}
		}

		// Clamp so the running balance never dips below zero; the ledger
		// row carries the delta that was actually applied.
		applied := delta
		if balance.CurrentQuantityKg+applied < 0 {
			applied = -balance.CurrentQuantityKg
		}
		balance.CurrentQuantityKg += applied
		balance.LastMovementAt = &occurredAt

		if in.MovementType == domain.MovementPurchase {
			s.applyPurchase(balance, in, crop, occurredAt)
		}
		if balance.UnitCostUSD != nil {
			value := balance.CurrentQuantityKg * *balance.UnitCostUSD
			balance.TotalValueUSD = &value
		}
		if balance.CurrentQuantityKg <= 0 {
			balance.CurrentQuantityKg = 0
			balance.IsActive = false
			// A batch is only flagged expired once it has been used up;
			// while stock remains the read path reports expiry status.
			if balance.ExpiryDate != nil && balance.ExpiryDate.Before(occurredAt) {
				balance.IsExpired = true
			}
		}

		if err := tx.UpdateBalance(ctx, balance); err != nil {
			return err
		}

		movement = &domain.StockMovement{
			BalanceID:    balance.ID,
			BuyerID:      in.BuyerID,
			CropID:       in.CropID,
			MovementType: in.MovementType,
			QuantityKg:   applied,
			UnitCostUSD:  in.UnitCostUSD,
			OrderID:      in.OrderID,
			OrderItemID:  in.OrderItemID,
			Notes:        in.Notes,
			OccurredAt:   occurredAt,
		}
		if in.UnitCostUSD != nil {
			cost := in.QuantityKg * *in.UnitCostUSD
			movement.TotalCostUSD = &cost
		}
		return tx.InsertMovement(ctx, movement)
	})
	if err != nil {
		return nil, nil, err
	}

	log.Debug().
		Int64("buyer_id", in.BuyerID).
		Int64("crop_id", in.CropID).
		Str("movement_type", string(in.MovementType)).
		Float64("quantity_kg", movement.QuantityKg).
		Float64("balance_kg", balance.CurrentQuantityKg).
		Msg("stock movement recorded")

	return balance, movement, nil
}

// RecordConsumption is a convenience wrapper for consumption movements.
func (s *LedgerService) RecordConsumption(ctx context.Context, buyerID, cropID int64, quantityKg float64, notes *string) (*domain.StockBalance, *domain.StockMovement, error) {
	return s.RecordMovement(ctx, MovementInput{
		BuyerID:      buyerID,
		CropID:       cropID,
		MovementType: domain.MovementConsumption,
		QuantityKg:   quantityKg,
		Notes:        notes,
	})
}

// RecordWaste is a convenience wrapper for waste movements.
func (s *LedgerService) RecordWaste(ctx context.Context, buyerID, cropID int64, quantityKg float64, notes *string) (*domain.StockBalance, *domain.StockMovement, error) {
	return s.RecordMovement(ctx, MovementInput{
		BuyerID:      buyerID,
		CropID:       cropID,
		MovementType: domain.MovementWaste,
		QuantityKg:   quantityKg,
		Notes:        notes,
	})
}

// SyncFromOrder turns a delivered order into purchase movements, one per
// line. The unique index on (order_id, order_item_id) makes replays of the
// same delivery no-ops, so the sync is safe to call repeatedly.
func (s *LedgerService) SyncFromOrder(ctx context.Context, order domain.DeliveredOrder) (int, error) {
	synced := 0
	for _, item := range order.Items {
		cropID, err := s.catalog.GetListingCrop(ctx, item.ListingID)
		if err != nil {
			log.Warn().Err(err).
				Int64("order_id", order.OrderID).
				Int64("listing_id", item.ListingID).
				Msg("order sync: cannot resolve listing crop, skipping line")
			continue
		}

		qty := item.QtyKg
		if item.DeliveredKg > 0 {
			qty = item.DeliveredKg
		}
		if qty <= 0 {
			continue
		}

		unitCost := item.UnitPrice
		orderID := order.OrderID
		orderItemID := item.OrderItemID
		note := fmt.Sprintf("Order %s delivered", order.OrderNumber)

		_, _, err = s.RecordMovement(ctx, MovementInput{
			BuyerID:      order.BuyerID,
			CropID:       cropID,
			MovementType: domain.MovementPurchase,
			QuantityKg:   qty,
			UnitCostUSD:  &unitCost,
			OrderID:      &orderID,
			OrderItemID:  &orderItemID,
			Notes:        &note,
			OccurredAt:   order.DeliveredAt,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateMovement) {
				log.Debug().
					Int64("order_id", orderID).
					Int64("order_item_id", orderItemID).
					Msg("order sync: line already recorded")
				continue
			}
			return synced, err
		}
		synced++

		s.refreshConsumptionStats(ctx, order.BuyerID, cropID, qty, order.DeliveredAt)
	}

	return synced, nil
}

// refreshConsumptionStats keeps the preference's order history fields
// current after a delivery. Best effort; a buyer without a preference for
// the crop is not an error.
func (s *LedgerService) refreshConsumptionStats(ctx context.Context, buyerID, cropID int64, qty float64, deliveredAt *time.Time) {
	pref, err := s.prefs.Get(ctx, buyerID, cropID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Int64("buyer_id", buyerID).Int64("crop_id", cropID).Msg("order sync: preference lookup failed")
		}
		return
	}

	orderedAt := s.now()
	if deliveredAt != nil {
		orderedAt = *deliveredAt
	}
	pref.LastOrderDate = &orderedAt
	pref.LastOrderQuantityKg = &qty

	consumed, err := s.stocks.SumConsumptionKg(ctx, buyerID, cropID, s.now().AddDate(0, 0, -metrics.DefaultLookbackDays))
	if err == nil {
		pref.AvgMonthlyConsumptionKg = &consumed
	}

	if err := s.prefs.Update(ctx, pref); err != nil {
		log.Warn().Err(err).Int64("buyer_id", buyerID).Int64("crop_id", cropID).Msg("order sync: consumption stats update failed")
	}
}

// Movements lists ledger history for a buyer.
func (s *LedgerService) Movements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	if filter.Since.IsZero() {
		filter.Since = s.now().AddDate(0, 0, -metrics.DefaultLookbackDays)
	}
	return s.stocks.ListMovements(ctx, filter)
}

func (s *LedgerService) applyPurchase(balance *domain.StockBalance, in MovementInput, crop *domain.CropInfo, occurredAt time.Time) {
	balance.PurchaseDate = &occurredAt
	if in.UnitCostUSD != nil {
		balance.UnitCostUSD = in.UnitCostUSD
	}
	if in.BatchNumber != nil {
		balance.BatchNumber = in.BatchNumber
	}
	if in.OrderID != nil {
		balance.SupplierOrderID = in.OrderID
	}

	shelfLife := in.ShelfLifeDays
	if shelfLife == nil {
		shelfLife = crop.PerishabilityDays
	}
	if shelfLife != nil {
		balance.ShelfLifeDays = shelfLife
		expiry := occurredAt.AddDate(0, 0, *shelfLife)
		balance.ExpiryDate = &expiry
		balance.IsExpired = false
	}
}

func signedDelta(in MovementInput) float64 {
	switch in.MovementType {
	case domain.MovementConsumption, domain.MovementWaste:
		return -in.QuantityKg
	case domain.MovementAdjustment:
		if in.Decrease {
			return -in.QuantityKg
		}
		return in.QuantityKg
	default:
		return in.QuantityKg
	}
}
