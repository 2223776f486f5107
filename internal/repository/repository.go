package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mundamarket/stock-engine/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateMovement is returned when a movement insert collides with the
// (order_id, order_item_id) unique index; callers treat it as an already
// processed delivery line.
var ErrDuplicateMovement = errors.New("movement already recorded for order item")

// ErrPreferenceExists is returned when a buyer already monitors a crop.
var ErrPreferenceExists = errors.New("preference already exists for crop")

// StockTxRepository is the transaction-scoped slice of the stock store used
// by the ledger. The balance row is locked for the life of the transaction.
type StockTxRepository interface {
	GetActiveBalanceForUpdate(ctx context.Context, buyerID, cropID int64) (*domain.StockBalance, error)
	CreateBalance(ctx context.Context, balance *domain.StockBalance) error
	UpdateBalance(ctx context.Context, balance *domain.StockBalance) error
	InsertMovement(ctx context.Context, movement *domain.StockMovement) error
}

// StockRepository persists balances and the append-only movement ledger.
type StockRepository interface {
	// InTx runs fn inside one transaction so a balance mutation and its
	// ledger row never diverge.
	InTx(ctx context.Context, fn func(tx StockTxRepository) error) error

	GetBalance(ctx context.Context, buyerID, cropID int64) (*domain.StockBalance, error)
	ListBalances(ctx context.Context, buyerID int64, includeExpired bool) ([]domain.StockBalance, error)
	ListBalancesWithPreferences(ctx context.Context) ([]domain.StockBalance, error)
	UpdateDerivedFields(ctx context.Context, balance *domain.StockBalance) error
	SumConsumptionKg(ctx context.Context, buyerID, cropID int64, since time.Time) (float64, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error)
}

// PreferenceRepository persists buyer inventory preferences.
type PreferenceRepository interface {
	Create(ctx context.Context, pref *domain.InventoryPreference) error
	Update(ctx context.Context, pref *domain.InventoryPreference) error
	Delete(ctx context.Context, buyerID, preferenceID int64) error
	GetByID(ctx context.Context, buyerID, preferenceID int64) (*domain.InventoryPreference, error)
	Get(ctx context.Context, buyerID, cropID int64) (*domain.InventoryPreference, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]domain.InventoryPreference, error)
	// ListForAlerts returns preferences with low-stock or harvest alerts
	// enabled, optionally narrowed to one buyer.
	ListForAlerts(ctx context.Context, buyerID *int64) ([]domain.InventoryPreference, error)
	// ListForPriceAlerts returns preferences with price alerts enabled.
	ListForPriceAlerts(ctx context.Context, buyerID *int64) ([]domain.InventoryPreference, error)
}

// AlertTxRepository is the transaction-scoped alert store used for
// upsert-or-skip so concurrent generators cannot race in duplicates.
type AlertTxRepository interface {
	FindActiveForUpdate(ctx context.Context, buyerID, cropID int64, alertType domain.AlertType) (*domain.InventoryAlert, error)
	Insert(ctx context.Context, alert *domain.InventoryAlert) error
	Update(ctx context.Context, alert *domain.InventoryAlert) error
}

// AlertRepository persists generated alerts.
type AlertRepository interface {
	InTx(ctx context.Context, fn func(tx AlertTxRepository) error) error

	List(ctx context.Context, filter domain.AlertFilter) ([]domain.InventoryAlert, error)
	GetByID(ctx context.Context, buyerID, alertID int64) (*domain.InventoryAlert, error)
	SetStatus(ctx context.Context, buyerID, alertID int64, status domain.AlertStatus, at time.Time) error
}

// HistoryRepository persists market-supply snapshots.
type HistoryRepository interface {
	Insert(ctx context.Context, history *domain.StockHistory) error
	// Latest returns the most recent snapshot for a crop recorded at or
	// after since.
	Latest(ctx context.Context, cropID int64, since time.Time) (*domain.StockHistory, error)
	List(ctx context.Context, cropID int64, since time.Time) ([]domain.StockHistory, error)
}

// CatalogRepository reads the externally owned marketplace tables: crops,
// listings, lots, production plans, and buyer contact data.
type CatalogRepository interface {
	GetCrop(ctx context.Context, cropID int64) (*domain.CropInfo, error)
	ListActiveCrops(ctx context.Context) ([]domain.CropInfo, error)
	GetListingCrop(ctx context.Context, listingID int64) (int64, error)
	// GetMarketSupply aggregates available lots behind active listings
	// across all farmers for one crop.
	GetMarketSupply(ctx context.Context, cropID int64) (*domain.MarketSupply, error)
	// GetCurrentAvgPrice averages active listing prices for one crop; nil
	// when there are no active listings.
	GetCurrentAvgPrice(ctx context.Context, cropID int64) (*float64, error)
	ListUpcomingHarvests(ctx context.Context, cropID int64, from, to time.Time) ([]domain.HarvestPlan, error)
	GetBuyerContact(ctx context.Context, buyerID int64) (*domain.BuyerContact, error)
}
