package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
)

func newLedgerFixture(t *testing.T) (*LedgerService, *MockStockRepository, *MockPreferenceRepository, *MockCatalogRepository) {
	t.Helper()
	stocks := &MockStockRepository{}
	prefs := &MockPreferenceRepository{}
	catalog := &MockCatalogRepository{}
	svc := NewLedgerService(stocks, prefs, catalog)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, stocks, prefs, catalog
}

func TestRecordMovementRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _, _ := newLedgerFixture(t)

	for _, qty := range []float64{0, -5} {
		_, _, err := svc.RecordMovement(context.Background(), MovementInput{
			BuyerID:      1,
			CropID:       2,
			MovementType: domain.MovementConsumption,
			QuantityKg:   qty,
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestRecordMovementUnknownCrop(t *testing.T) {
	svc, _, _, catalog := newLedgerFixture(t)
	catalog.On("GetCrop", mock.Anything, int64(99)).Return(nil, repository.ErrNotFound)

	_, _, err := svc.RecordMovement(context.Background(), MovementInput{
		BuyerID:      1,
		CropID:       99,
		MovementType: domain.MovementPurchase,
		QuantityKg:   10,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumptionStoredNegative(t *testing.T) {
	svc, stocks, _, catalog := newLedgerFixture(t)
	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)

	balance := &domain.StockBalance{ID: 5, BuyerID: 1, CropID: 2, CurrentQuantityKg: 10, IsActive: true}
	stocks.On("InTx", mock.Anything).Return(nil)
	stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(balance, nil)
	stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(nil)

	updated, movement, err := svc.RecordConsumption(context.Background(), 1, 2, 3, nil)

	assert.NoError(t, err)
	assert.Equal(t, -3.0, movement.QuantityKg)
	assert.Equal(t, 7.0, updated.CurrentQuantityKg)
	assert.True(t, updated.IsActive)
}

func TestConsumptionClampsAtZero(t *testing.T) {
	svc, stocks, _, catalog := newLedgerFixture(t)
	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)

	balance := &domain.StockBalance{ID: 5, BuyerID: 1, CropID: 2, CurrentQuantityKg: 5, IsActive: true}
	stocks.On("InTx", mock.Anything).Return(nil)
	stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(balance, nil)
	stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(nil)

	updated, movement, err := svc.RecordWaste(context.Background(), 1, 2, 8, nil)

	assert.NoError(t, err)
	// The ledger records what was actually applied, not what was requested.
	assert.Equal(t, -5.0, movement.QuantityKg)
	assert.Equal(t, 0.0, updated.CurrentQuantityKg)
	assert.False(t, updated.IsActive)
}

func TestExpiryFlagOnlySetOnceDepleted(t *testing.T) {
	expired := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		consume     float64
		wantQty     float64
		wantExpired bool
	}{
		{"remaining stock past expiry stays unflagged", 10, 40, false},
		{"depleted stock past expiry is flagged", 50, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, stocks, _, catalog := newLedgerFixture(t)
			catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Tomatoes"}, nil)

			balance := &domain.StockBalance{
				ID: 5, BuyerID: 1, CropID: 2,
				CurrentQuantityKg: 50,
				ExpiryDate:        &expired,
				IsActive:          true,
			}
			stocks.On("InTx", mock.Anything).Return(nil)
			stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(balance, nil)
			stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)
			stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(nil)

			updated, _, err := svc.RecordConsumption(context.Background(), 1, 2, tt.consume, nil)

			assert.NoError(t, err)
			assert.Equal(t, tt.wantQty, updated.CurrentQuantityKg)
			assert.Equal(t, tt.wantExpired, updated.IsExpired)
		})
	}
}

func TestDecreaseWithoutBalance(t *testing.T) {
	svc, stocks, _, catalog := newLedgerFixture(t)
	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)

	stocks.On("InTx", mock.Anything).Return(nil)
	stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(nil, repository.ErrNotFound)

	_, _, err := svc.RecordConsumption(context.Background(), 1, 2, 3, nil)
	assert.ErrorIs(t, err, ErrNoStock)
}

func TestPurchaseCreatesBalanceWithExpiry(t *testing.T) {
	svc, stocks, _, catalog := newLedgerFixture(t)
	perishability := 5
	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Tomatoes", PerishabilityDays: &perishability}, nil)

	stocks.On("InTx", mock.Anything).Return(nil)
	stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(nil, repository.ErrNotFound)
	stocks.Tx.On("CreateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(nil)

	cost := 2.5
	balance, movement, err := svc.RecordMovement(context.Background(), MovementInput{
		BuyerID:      1,
		CropID:       2,
		MovementType: domain.MovementPurchase,
		QuantityKg:   20,
		UnitCostUSD:  &cost,
	})

	assert.NoError(t, err)
	assert.Equal(t, 20.0, movement.QuantityKg)
	assert.Equal(t, 50.0, *movement.TotalCostUSD)
	assert.Equal(t, 20.0, balance.CurrentQuantityKg)
	assert.True(t, balance.IsActive)
	if assert.NotNil(t, balance.ExpiryDate) {
		expected := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, expected, *balance.ExpiryDate)
	}
	assert.Equal(t, 50.0, *balance.TotalValueUSD)
}

func TestAdjustmentDirection(t *testing.T) {
	tests := []struct {
		name     string
		decrease bool
		want     float64
	}{
		{"increase", false, 4.0},
		{"decrease", true, -4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, stocks, _, catalog := newLedgerFixture(t)
			catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)

			balance := &domain.StockBalance{ID: 5, BuyerID: 1, CropID: 2, CurrentQuantityKg: 10, IsActive: true}
			stocks.On("InTx", mock.Anything).Return(nil)
			stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(balance, nil)
			stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)
			stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(nil)

			_, movement, err := svc.RecordMovement(context.Background(), MovementInput{
				BuyerID:      1,
				CropID:       2,
				MovementType: domain.MovementAdjustment,
				QuantityKg:   4,
				Decrease:     tt.decrease,
			})

			assert.NoError(t, err)
			assert.Equal(t, tt.want, movement.QuantityKg)
		})
	}
}

func TestSyncFromOrderSkipsDuplicateLines(t *testing.T) {
	svc, stocks, prefs, catalog := newLedgerFixture(t)
	prefs.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	catalog.On("GetListingCrop", mock.Anything, int64(10)).Return(int64(2), nil)
	catalog.On("GetListingCrop", mock.Anything, int64(11)).Return(int64(3), nil)
	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)
	catalog.On("GetCrop", mock.Anything, int64(3)).Return(&domain.CropInfo{ID: 3, Name: "Beans"}, nil)

	stocks.On("InTx", mock.Anything).Return(nil)
	stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), mock.Anything).Return(nil, repository.ErrNotFound)
	stocks.Tx.On("CreateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(nil).Once()
	stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(repository.ErrDuplicateMovement).Once()

	synced, err := svc.SyncFromOrder(context.Background(), domain.DeliveredOrder{
		OrderID:     100,
		OrderNumber: "ORD-100",
		BuyerID:     1,
		Items: []domain.DeliveredItem{
			{OrderItemID: 1, ListingID: 10, QtyKg: 50, DeliveredKg: 48, UnitPrice: 1.2},
			{OrderItemID: 2, ListingID: 11, QtyKg: 30, UnitPrice: 0.8},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, synced)
}

func TestSyncFromOrderPrefersDeliveredQuantity(t *testing.T) {
	svc, stocks, prefs, catalog := newLedgerFixture(t)
	prefs.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	catalog.On("GetListingCrop", mock.Anything, int64(10)).Return(int64(2), nil)
	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)

	stocks.On("InTx", mock.Anything).Return(nil)
	stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(nil, repository.ErrNotFound)
	stocks.Tx.On("CreateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)

	var inserted *domain.StockMovement
	stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(*domain.StockMovement)
	}).Return(nil)

	synced, err := svc.SyncFromOrder(context.Background(), domain.DeliveredOrder{
		OrderID: 100,
		BuyerID: 1,
		Items: []domain.DeliveredItem{
			{OrderItemID: 1, ListingID: 10, QtyKg: 50, DeliveredKg: 48, UnitPrice: 1.2},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, synced)
	if assert.NotNil(t, inserted) {
		assert.Equal(t, 48.0, inserted.QuantityKg)
		assert.Equal(t, int64(100), *inserted.OrderID)
		assert.Equal(t, int64(1), *inserted.OrderItemID)
	}
}

func TestSyncFromOrderRefreshesConsumptionStats(t *testing.T) {
	svc, stocks, prefs, catalog := newLedgerFixture(t)
	catalog.On("GetListingCrop", mock.Anything, int64(10)).Return(int64(2), nil)
	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)

	stocks.On("InTx", mock.Anything).Return(nil)
	stocks.Tx.On("GetActiveBalanceForUpdate", mock.Anything, int64(1), int64(2)).Return(nil, repository.ErrNotFound)
	stocks.Tx.On("CreateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("UpdateBalance", mock.Anything, mock.Anything).Return(nil)
	stocks.Tx.On("InsertMovement", mock.Anything, mock.Anything).Return(nil)
	stocks.On("SumConsumptionKg", mock.Anything, int64(1), int64(2), mock.Anything).Return(60.0, nil)

	prefs.On("Get", mock.Anything, int64(1), int64(2)).Return(&domain.InventoryPreference{ID: 7, BuyerID: 1, CropID: 2, MinStockThresholdKg: 10}, nil)

	var saved *domain.InventoryPreference
	prefs.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.InventoryPreference)
	}).Return(nil)

	deliveredAt := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	synced, err := svc.SyncFromOrder(context.Background(), domain.DeliveredOrder{
		OrderID:     100,
		BuyerID:     1,
		DeliveredAt: &deliveredAt,
		Items: []domain.DeliveredItem{
			{OrderItemID: 1, ListingID: 10, QtyKg: 25, UnitPrice: 1.2},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, synced)
	if assert.NotNil(t, saved) {
		assert.Equal(t, deliveredAt, *saved.LastOrderDate)
		assert.Equal(t, 25.0, *saved.LastOrderQuantityKg)
		assert.Equal(t, 60.0, *saved.AvgMonthlyConsumptionKg)
	}
}
