package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
)

// MockStockRepository is a mock implementation of repository.StockRepository.
// InTx runs the callback against the embedded tx mock so transactional code
// paths are exercised without a database.
type MockStockRepository struct {
	mock.Mock
	Tx MockStockTxRepository
}

var _ repository.StockRepository = (*MockStockRepository)(nil)

func (m *MockStockRepository) InTx(ctx context.Context, fn func(tx repository.StockTxRepository) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(&m.Tx)
}

func (m *MockStockRepository) GetBalance(ctx context.Context, buyerID, cropID int64) (*domain.StockBalance, error) {
	args := m.Called(ctx, buyerID, cropID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockBalance), args.Error(1)
}

func (m *MockStockRepository) ListBalances(ctx context.Context, buyerID int64, includeExpired bool) ([]domain.StockBalance, error) {
	args := m.Called(ctx, buyerID, includeExpired)
	return args.Get(0).([]domain.StockBalance), args.Error(1)
}

func (m *MockStockRepository) ListBalancesWithPreferences(ctx context.Context) ([]domain.StockBalance, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StockBalance), args.Error(1)
}

func (m *MockStockRepository) UpdateDerivedFields(ctx context.Context, balance *domain.StockBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

func (m *MockStockRepository) SumConsumptionKg(ctx context.Context, buyerID, cropID int64, since time.Time) (float64, error) {
	args := m.Called(ctx, buyerID, cropID, since)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStockRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.StockMovement), args.Error(1)
}

type MockStockTxRepository struct {
	mock.Mock
}

var _ repository.StockTxRepository = (*MockStockTxRepository)(nil)

func (m *MockStockTxRepository) GetActiveBalanceForUpdate(ctx context.Context, buyerID, cropID int64) (*domain.StockBalance, error) {
	args := m.Called(ctx, buyerID, cropID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockBalance), args.Error(1)
}

func (m *MockStockTxRepository) CreateBalance(ctx context.Context, balance *domain.StockBalance) error {
	args := m.Called(ctx, balance)
	if args.Error(0) == nil {
		balance.ID = 1
		balance.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockStockTxRepository) UpdateBalance(ctx context.Context, balance *domain.StockBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

func (m *MockStockTxRepository) InsertMovement(ctx context.Context, movement *domain.StockMovement) error {
	args := m.Called(ctx, movement)
	if args.Error(0) == nil {
		movement.ID = 1
		movement.CreatedAt = time.Now()
	}
	return args.Error(0)
}

// MockPreferenceRepository is a mock implementation of repository.PreferenceRepository.
type MockPreferenceRepository struct {
	mock.Mock
}

var _ repository.PreferenceRepository = (*MockPreferenceRepository)(nil)

func (m *MockPreferenceRepository) Create(ctx context.Context, pref *domain.InventoryPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockPreferenceRepository) Update(ctx context.Context, pref *domain.InventoryPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockPreferenceRepository) Delete(ctx context.Context, buyerID, preferenceID int64) error {
	args := m.Called(ctx, buyerID, preferenceID)
	return args.Error(0)
}

func (m *MockPreferenceRepository) GetByID(ctx context.Context, buyerID, preferenceID int64) (*domain.InventoryPreference, error) {
	args := m.Called(ctx, buyerID, preferenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryPreference), args.Error(1)
}

func (m *MockPreferenceRepository) Get(ctx context.Context, buyerID, cropID int64) (*domain.InventoryPreference, error) {
	args := m.Called(ctx, buyerID, cropID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryPreference), args.Error(1)
}

func (m *MockPreferenceRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]domain.InventoryPreference, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]domain.InventoryPreference), args.Error(1)
}

func (m *MockPreferenceRepository) ListForAlerts(ctx context.Context, buyerID *int64) ([]domain.InventoryPreference, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]domain.InventoryPreference), args.Error(1)
}

func (m *MockPreferenceRepository) ListForPriceAlerts(ctx context.Context, buyerID *int64) ([]domain.InventoryPreference, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]domain.InventoryPreference), args.Error(1)
}

// MockAlertRepository is a mock implementation of repository.AlertRepository.
type MockAlertRepository struct {
	mock.Mock
	Tx MockAlertTxRepository
}

var _ repository.AlertRepository = (*MockAlertRepository)(nil)

func (m *MockAlertRepository) InTx(ctx context.Context, fn func(tx repository.AlertTxRepository) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(&m.Tx)
}

func (m *MockAlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]domain.InventoryAlert, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.InventoryAlert), args.Error(1)
}

func (m *MockAlertRepository) GetByID(ctx context.Context, buyerID, alertID int64) (*domain.InventoryAlert, error) {
	args := m.Called(ctx, buyerID, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryAlert), args.Error(1)
}

func (m *MockAlertRepository) SetStatus(ctx context.Context, buyerID, alertID int64, status domain.AlertStatus, at time.Time) error {
	args := m.Called(ctx, buyerID, alertID, status, at)
	return args.Error(0)
}

type MockAlertTxRepository struct {
	mock.Mock
}

var _ repository.AlertTxRepository = (*MockAlertTxRepository)(nil)

func (m *MockAlertTxRepository) FindActiveForUpdate(ctx context.Context, buyerID, cropID int64, alertType domain.AlertType) (*domain.InventoryAlert, error) {
	args := m.Called(ctx, buyerID, cropID, alertType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryAlert), args.Error(1)
}

func (m *MockAlertTxRepository) Insert(ctx context.Context, alert *domain.InventoryAlert) error {
	args := m.Called(ctx, alert)
	if args.Error(0) == nil {
		alert.ID = 1
		alert.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockAlertTxRepository) Update(ctx context.Context, alert *domain.InventoryAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockHistoryRepository is a mock implementation of repository.HistoryRepository.
type MockHistoryRepository struct {
	mock.Mock
}

var _ repository.HistoryRepository = (*MockHistoryRepository)(nil)

func (m *MockHistoryRepository) Insert(ctx context.Context, history *domain.StockHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockHistoryRepository) Latest(ctx context.Context, cropID int64, since time.Time) (*domain.StockHistory, error) {
	args := m.Called(ctx, cropID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockHistory), args.Error(1)
}

func (m *MockHistoryRepository) List(ctx context.Context, cropID int64, since time.Time) ([]domain.StockHistory, error) {
	args := m.Called(ctx, cropID, since)
	return args.Get(0).([]domain.StockHistory), args.Error(1)
}

// MockCatalogRepository is a mock implementation of repository.CatalogRepository.
type MockCatalogRepository struct {
	mock.Mock
}

var _ repository.CatalogRepository = (*MockCatalogRepository)(nil)

func (m *MockCatalogRepository) GetCrop(ctx context.Context, cropID int64) (*domain.CropInfo, error) {
	args := m.Called(ctx, cropID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CropInfo), args.Error(1)
}

func (m *MockCatalogRepository) ListActiveCrops(ctx context.Context) ([]domain.CropInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CropInfo), args.Error(1)
}

func (m *MockCatalogRepository) GetListingCrop(ctx context.Context, listingID int64) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalogRepository) GetMarketSupply(ctx context.Context, cropID int64) (*domain.MarketSupply, error) {
	args := m.Called(ctx, cropID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarketSupply), args.Error(1)
}

func (m *MockCatalogRepository) GetCurrentAvgPrice(ctx context.Context, cropID int64) (*float64, error) {
	args := m.Called(ctx, cropID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func (m *MockCatalogRepository) ListUpcomingHarvests(ctx context.Context, cropID int64, from, to time.Time) ([]domain.HarvestPlan, error) {
	args := m.Called(ctx, cropID, from, to)
	return args.Get(0).([]domain.HarvestPlan), args.Error(1)
}

func (m *MockCatalogRepository) GetBuyerContact(ctx context.Context, buyerID int64) (*domain.BuyerContact, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BuyerContact), args.Error(1)
}
