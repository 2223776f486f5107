package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/mundamarket/stock-engine/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func TestComputeReorderPoint(t *testing.T) {
	// 90kg consumed over 30 days, lead time 3, safety 2
	res := Compute(Input{
		LookbackDays:       30,
		TotalConsumptionKg: 90,
		CurrentQuantityKg:  45,
		UnitCostUSD:        2.5,
		LeadTimeDays:       3,
		SafetyStockDays:    2,
	})

	assert.InDelta(t, 3.0, res.AverageDailyUsageKg, 1e-9)
	assert.InDelta(t, 6.0, res.SafetyStockKg, 1e-9)
	assert.InDelta(t, 15.0, res.ReorderPointKg, 1e-9)
	if assert.NotNil(t, res.DaysOfStockCover) {
		assert.InDelta(t, 15.0, *res.DaysOfStockCover, 1e-9)
	}
}

func TestComputeNoConsumption(t *testing.T) {
	res := Compute(Input{
		LookbackDays:      30,
		CurrentQuantityKg: 100,
		UnitCostUSD:       1.0,
	})

	assert.Zero(t, res.AverageDailyUsageKg)
	assert.Zero(t, res.SafetyStockKg)
	assert.Zero(t, res.ReorderPointKg)
	assert.Nil(t, res.DaysOfStockCover)
	assert.Nil(t, res.DaysToSellout)
	assert.Equal(t, domain.IntensityObsolete, res.SalesIntensityCode)
	assert.Zero(t, res.InventoryTurnover)
	assert.Zero(t, res.DaysOfInventory)
}

func TestComputeTurnoverGuards(t *testing.T) {
	// Zero current quantity must not divide by zero
	res := Compute(Input{
		LookbackDays:       30,
		TotalConsumptionKg: 60,
		CurrentQuantityKg:  0,
		UnitCostUSD:        3.0,
	})
	assert.Zero(t, res.InventoryTurnover)
	assert.Zero(t, res.DaysOfInventory)

	// Zero unit cost likewise
	res = Compute(Input{
		LookbackDays:       30,
		TotalConsumptionKg: 60,
		CurrentQuantityKg:  30,
		UnitCostUSD:        0,
	})
	assert.Zero(t, res.InventoryTurnover)

	// Healthy case: 60 consumed vs 30 on hand = turnover 2, 182.5 days
	res = Compute(Input{
		LookbackDays:       30,
		TotalConsumptionKg: 60,
		CurrentQuantityKg:  30,
		UnitCostUSD:        3.0,
	})
	assert.InDelta(t, 2.0, res.InventoryTurnover, 1e-9)
	assert.InDelta(t, 182.5, res.DaysOfInventory, 1e-9)
}

func TestComputeDefaults(t *testing.T) {
	res := Compute(Input{
		TotalConsumptionKg: 30,
		CurrentQuantityKg:  10,
	})
	// 30-day lookback, lead time 3, safety 2 defaults
	assert.InDelta(t, 1.0, res.AverageDailyUsageKg, 1e-9)
	assert.InDelta(t, 2.0, res.SafetyStockKg, 1e-9)
	assert.InDelta(t, 5.0, res.ReorderPointKg, 1e-9)
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name          string
		daysToSellout *float64
		want          domain.IntensityCode
	}{
		{"just under three days", fptr(2.99), domain.IntensityFast},
		{"exactly three days", fptr(3.0), domain.IntensityNormal},
		{"exactly seven days", fptr(7.0), domain.IntensityNormal},
		{"just over seven days", fptr(7.01), domain.IntensitySlow},
		{"zero days", fptr(0), domain.IntensityFast},
		{"no consumption", nil, domain.IntensityObsolete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.daysToSellout))
		})
	}
}

func TestReorderPointMonotonicity(t *testing.T) {
	base := Input{
		LookbackDays:       30,
		TotalConsumptionKg: 90,
		CurrentQuantityKg:  50,
		LeadTimeDays:       3,
		SafetyStockDays:    2,
	}
	prev := Compute(base).ReorderPointKg
	for lead := 4; lead <= 10; lead++ {
		in := base
		in.LeadTimeDays = lead
		got := Compute(in).ReorderPointKg
		assert.GreaterOrEqual(t, got, prev, "lead time %d", lead)
		prev = got
	}

	prev = Compute(base).ReorderPointKg
	for safety := 3; safety <= 10; safety++ {
		in := base
		in.SafetyStockDays = safety
		got := Compute(in).ReorderPointKg
		assert.GreaterOrEqual(t, got, prev, "safety days %d", safety)
		prev = got
	}
}

func TestStockStatusFor(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		safety  *float64
		reorder *float64
		want    domain.StockStatus
	}{
		{"no thresholds", 50, nil, nil, domain.StockSafe},
		{"at safety stock", 6, fptr(6), fptr(15), domain.StockCritical},
		{"between safety and rop", 12, fptr(6), fptr(15), domain.StockReorder},
		{"at rop", 15, fptr(6), fptr(15), domain.StockReorder},
		{"inside low band", 17, fptr(6), fptr(15), domain.StockLow},
		{"at low band edge", 18, fptr(6), fptr(15), domain.StockLow},
		{"above low band", 18.01, fptr(6), fptr(15), domain.StockSafe},
		{"rop without safety", 0, nil, fptr(15), domain.StockCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StockStatusFor(tt.current, tt.safety, tt.reorder))
		})
	}
}

func TestExpiryStatusFor(t *testing.T) {
	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	status, days := ExpiryStatusFor(now, nil)
	assert.Equal(t, domain.ExpiryFresh, status)
	assert.Nil(t, days)

	// Purchased 2024-01-01 with 5-day shelf life expires 2024-01-06
	expiry := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	status, days = ExpiryStatusFor(now, &expiry)
	assert.Equal(t, domain.ExpiryApproaching, status)
	if assert.NotNil(t, days) {
		assert.Equal(t, 1, *days)
	}

	past := now.Add(-48 * time.Hour)
	status, _ = ExpiryStatusFor(now, &past)
	assert.Equal(t, domain.ExpiryExpired, status)

	soft := now.Add(4 * 24 * time.Hour)
	status, _ = ExpiryStatusFor(now, &soft)
	assert.Equal(t, domain.ExpiryApproaching, status)

	far := now.Add(10 * 24 * time.Hour)
	status, _ = ExpiryStatusFor(now, &far)
	assert.Equal(t, domain.ExpiryFresh, status)
}

func TestSuggestReorderKg(t *testing.T) {
	// Preference quantity wins
	assert.InDelta(t, 40, SuggestReorderKg(fptr(3), 7, 10, fptr(40)), 1e-9)
	// Top up to minimum cover: 3kg/day * 7d = 21 target, 10 on hand
	assert.InDelta(t, 11, SuggestReorderKg(fptr(3), 7, 10, nil), 1e-9)
	// Already above target
	assert.Zero(t, SuggestReorderKg(fptr(3), 7, 30, nil))
	// No usage history
	assert.Zero(t, SuggestReorderKg(nil, 7, 10, nil))
}

func TestStockoutUrgency(t *testing.T) {
	assert.Equal(t, "critical", StockoutUrgency(fptr(0.5)))
	assert.Equal(t, "high", StockoutUrgency(fptr(2.9)))
	assert.Equal(t, "medium", StockoutUrgency(fptr(3)))
	assert.Equal(t, "medium", StockoutUrgency(nil))
}
