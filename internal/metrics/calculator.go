package metrics

import (
	"time"

	"github.com/mundamarket/stock-engine/internal/domain"
)

const (
	// DefaultLookbackDays is the consumption window used when none is given.
	DefaultLookbackDays = 30
	// DefaultLeadTimeDays applies when a balance has no configured lead time.
	DefaultLeadTimeDays = 3
	// DefaultSafetyStockDays applies when no safety-stock window is given.
	DefaultSafetyStockDays = 2

	daysPerYear = 365.0
	// Balances within 20% above the reorder point are flagged low.
	lowStockBand = 1.2
)

// Input carries everything needed to derive reorder metrics for one balance.
type Input struct {
	LookbackDays       int
	TotalConsumptionKg float64
	CurrentQuantityKg  float64
	UnitCostUSD        float64
	LeadTimeDays       int
	SafetyStockDays    int
}

// Result holds the derived metrics. DaysOfStockCover and DaysToSellout are
// nil when there is no consumption in the window (infinite cover).
type Result struct {
	AverageDailyUsageKg float64
	SafetyStockKg       float64
	ReorderPointKg      float64
	DaysOfStockCover    *float64
	DaysToSellout       *float64
	SalesIntensityCode  domain.IntensityCode
	InventoryTurnover   float64
	DaysOfInventory     float64
}

// Compute derives reorder metrics from ledger aggregates. Pure; guards every
// division so a zero quantity, cost, or usage never faults.
func Compute(in Input) Result {
	lookback := in.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	leadTime := in.LeadTimeDays
	if leadTime <= 0 {
		leadTime = DefaultLeadTimeDays
	}
	safetyDays := in.SafetyStockDays
	if safetyDays <= 0 {
		safetyDays = DefaultSafetyStockDays
	}

	usage := in.TotalConsumptionKg / float64(lookback)
	safetyStock := usage * float64(safetyDays)
	reorderPoint := usage*float64(leadTime) + safetyStock

	res := Result{
		AverageDailyUsageKg: usage,
		SafetyStockKg:       safetyStock,
		ReorderPointKg:      reorderPoint,
	}

	if usage > 0 {
		cover := in.CurrentQuantityKg / usage
		res.DaysOfStockCover = &cover
		sellout := cover
		res.DaysToSellout = &sellout
	}

	res.SalesIntensityCode = Classify(res.DaysToSellout)

	// Turnover uses consumption value over current inventory value; with a
	// single cost basis the cost cancels but both guards still apply.
	if in.CurrentQuantityKg > 0 && in.UnitCostUSD > 0 {
		res.InventoryTurnover = (in.TotalConsumptionKg * in.UnitCostUSD) / (in.CurrentQuantityKg * in.UnitCostUSD)
		if res.InventoryTurnover > 0 {
			res.DaysOfInventory = daysPerYear / res.InventoryTurnover
		}
	}

	return res
}

// Classify maps days-to-sellout onto the A/B/C/D intensity codes. A nil
// sellout (no consumption at all) is obsolete stock.
func Classify(daysToSellout *float64) domain.IntensityCode {
	if daysToSellout == nil {
		return domain.IntensityObsolete
	}
	switch d := *daysToSellout; {
	case d < 3:
		return domain.IntensityFast
	case d <= 7:
		return domain.IntensityNormal
	default:
		return domain.IntensitySlow
	}
}

// StockStatusFor classifies a balance against its thresholds. Without a
// configured reorder point everything is safe.
func StockStatusFor(currentKg float64, safetyStockKg, reorderPointKg *float64) domain.StockStatus {
	if reorderPointKg == nil {
		return domain.StockSafe
	}
	safety := 0.0
	if safetyStockKg != nil {
		safety = *safetyStockKg
	}
	switch {
	case currentKg <= safety:
		return domain.StockCritical
	case currentKg <= *reorderPointKg:
		return domain.StockReorder
	case currentKg <= *reorderPointKg*lowStockBand:
		return domain.StockLow
	default:
		return domain.StockSafe
	}
}

// ExpiryStatusFor classifies a balance's expiry date relative to now and
// returns the whole days until expiry (nil when no expiry is tracked).
// Both the urgent (<=2 days) and soft (<=4 days) bands report "approaching".
func ExpiryStatusFor(now time.Time, expiry *time.Time) (domain.ExpiryStatus, *int) {
	if expiry == nil {
		return domain.ExpiryFresh, nil
	}
	days := int(expiry.Sub(now).Hours() / 24)
	switch {
	case expiry.Before(now):
		return domain.ExpiryExpired, &days
	case days <= 4:
		return domain.ExpiryApproaching, &days
	default:
		return domain.ExpiryFresh, &days
	}
}

// SuggestReorderKg recommends a replenishment quantity: top up to the
// minimum-cover target, unless the preference pins an explicit quantity.
func SuggestReorderKg(avgDailyUsageKg *float64, minCoverDays int, currentKg float64, preferredKg *float64) float64 {
	if preferredKg != nil && *preferredKg > 0 {
		return *preferredKg
	}
	if avgDailyUsageKg == nil || *avgDailyUsageKg <= 0 || minCoverDays <= 0 {
		return 0
	}
	target := *avgDailyUsageKg * float64(minCoverDays)
	if target <= currentKg {
		return 0
	}
	return target - currentKg
}

// StockoutUrgency grades how soon a balance runs dry.
func StockoutUrgency(daysUntilStockout *float64) string {
	switch {
	case daysUntilStockout == nil:
		return "medium"
	case *daysUntilStockout < 1:
		return "critical"
	case *daysUntilStockout < 3:
		return "high"
	default:
		return "medium"
	}
}
