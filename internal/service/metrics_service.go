package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mundamarket/stock-engine/internal/cache"
	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/metrics"
	"github.com/mundamarket/stock-engine/internal/repository"
)

// MetricsService derives reorder metrics from the ledger and serves the
// read-path analytics views.
type MetricsService struct {
	stocks       repository.StockRepository
	prefs        repository.PreferenceRepository
	catalog      repository.CatalogRepository
	dashboards   cache.DashboardCache
	lookbackDays int
	now          func() time.Time
}

func NewMetricsService(
	stocks repository.StockRepository,
	prefs repository.PreferenceRepository,
	catalog repository.CatalogRepository,
	dashboards cache.DashboardCache,
	lookbackDays int,
) *MetricsService {
	if dashboards == nil {
		dashboards = cache.NewNoopDashboardCache()
	}
	if lookbackDays <= 0 {
		lookbackDays = metrics.DefaultLookbackDays
	}
	return &MetricsService{
		stocks:       stocks,
		prefs:        prefs,
		catalog:      catalog,
		dashboards:   dashboards,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

// ComputeMetrics recomputes the derived reorder fields for one balance from
// ledger consumption over the lookback window and persists them.
func (s *MetricsService) ComputeMetrics(ctx context.Context, balance *domain.StockBalance) (metrics.Result, error) {
	since := s.now().AddDate(0, 0, -s.lookbackDays)
	consumed, err := s.stocks.SumConsumptionKg(ctx, balance.BuyerID, balance.CropID, since)
	if err != nil {
		return metrics.Result{}, err
	}

	unitCost := 0.0
	if balance.UnitCostUSD != nil {
		unitCost = *balance.UnitCostUSD
	}

	result := metrics.Compute(metrics.Input{
		LookbackDays:       s.lookbackDays,
		TotalConsumptionKg: consumed,
		CurrentQuantityKg:  balance.CurrentQuantityKg,
		UnitCostUSD:        unitCost,
		LeadTimeDays:       balance.LeadTimeDays,
	})

	balance.AverageDailyUsageKg = &result.AverageDailyUsageKg
	balance.SafetyStockKg = &result.SafetyStockKg
	balance.ReorderPointKg = &result.ReorderPointKg
	balance.SalesIntensityCode = &result.SalesIntensityCode
	balance.InventoryTurnover = &result.InventoryTurnover
	balance.DaysOfInventory = &result.DaysOfInventory
	if balance.LeadTimeDays <= 0 {
		balance.LeadTimeDays = metrics.DefaultLeadTimeDays
	}

	if err := s.stocks.UpdateDerivedFields(ctx, balance); err != nil {
		return metrics.Result{}, err
	}

	return result, nil
}

// RecomputeAll refreshes derived metrics for every active balance that has a
// matching preference. Failures are logged per balance so one bad row never
// stalls the batch.
func (s *MetricsService) RecomputeAll(ctx context.Context) (int, error) {
	balances, err := s.stocks.ListBalancesWithPreferences(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range balances {
		if _, err := s.ComputeMetrics(ctx, &balances[i]); err != nil {
			log.Warn().Err(err).
				Int64("buyer_id", balances[i].BuyerID).
				Int64("crop_id", balances[i].CropID).
				Msg("metrics: recompute failed for balance")
			continue
		}
		updated++
	}

	return updated, nil
}

// Dashboard aggregates a buyer's stock position, served cache-aside.
func (s *MetricsService) Dashboard(ctx context.Context, buyerID int64) (*domain.DashboardMetrics, error) {
	if cached, ok, err := s.dashboards.Get(ctx, buyerID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("metrics: dashboard cache get failed")
	}

	balances, err := s.stocks.ListBalances(ctx, buyerID, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dashboard := &domain.DashboardMetrics{}
	coverSum := 0.0
	coverCount := 0
	for i := range balances {
		b := &balances[i]
		if !b.IsActive {
			continue
		}
		dashboard.TotalItems++
		dashboard.TotalQuantityKg += b.CurrentQuantityKg
		if b.TotalValueUSD != nil {
			dashboard.TotalStockValueUSD += *b.TotalValueUSD
		}

		status := metrics.StockStatusFor(b.CurrentQuantityKg, b.SafetyStockKg, b.ReorderPointKg)
		if status != domain.StockSafe {
			dashboard.ItemsLowStock++
		}

		expiryStatus, _ := metrics.ExpiryStatusFor(now, b.ExpiryDate)
		switch expiryStatus {
		case domain.ExpiryExpired:
			dashboard.ItemsExpired++
		case domain.ExpiryApproaching:
			dashboard.ItemsExpiringSoon++
		}

		if b.AverageDailyUsageKg != nil && *b.AverageDailyUsageKg > 0 {
			coverSum += b.CurrentQuantityKg / *b.AverageDailyUsageKg
			coverCount++
		}
	}
	if coverCount > 0 {
		dashboard.AverageDaysCover = coverSum / float64(coverCount)
	}

	if err := s.dashboards.Set(ctx, buyerID, dashboard); err != nil {
		log.Warn().Err(err).Msg("metrics: dashboard cache set failed")
	}

	return dashboard, nil
}

// StockItems lists a buyer's balances with read-path classifications.
func (s *MetricsService) StockItems(ctx context.Context, buyerID int64, includeExpired bool) ([]domain.StockItem, error) {
	balances, err := s.stocks.ListBalances(ctx, buyerID, includeExpired)
	if err != nil {
		return nil, err
	}

	cropNames, err := s.cropNames(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]domain.StockItem, 0, len(balances))
	for i := range balances {
		b := &balances[i]
		expiryStatus, daysUntil := metrics.ExpiryStatusFor(now, b.ExpiryDate)

		var cover *float64
		if b.AverageDailyUsageKg != nil && *b.AverageDailyUsageKg > 0 {
			c := b.CurrentQuantityKg / *b.AverageDailyUsageKg
			cover = &c
		}

		items = append(items, domain.StockItem{
			BalanceID:           b.ID,
			CropID:              b.CropID,
			CropName:            cropNames[b.CropID],
			CurrentQuantityKg:   b.CurrentQuantityKg,
			ReservedQuantityKg:  b.ReservedQuantityKg,
			AvailableQuantityKg: b.CurrentQuantityKg - b.ReservedQuantityKg,
			ReorderPointKg:      b.ReorderPointKg,
			SafetyStockKg:       b.SafetyStockKg,
			DaysOfStockCover:    cover,
			StockStatus:         metrics.StockStatusFor(b.CurrentQuantityKg, b.SafetyStockKg, b.ReorderPointKg),
			ExpiryDate:          b.ExpiryDate,
			DaysUntilExpiry:     daysUntil,
			ExpiryStatus:        expiryStatus,
			UnitCostUSD:         b.UnitCostUSD,
			TotalValueUSD:       b.TotalValueUSD,
			SalesIntensityCode:  b.SalesIntensityCode,
			InventoryTurnover:   b.InventoryTurnover,
			DaysOfInventory:     b.DaysOfInventory,
			LastMovementAt:      b.LastMovementAt,
		})
	}

	return items, nil
}

// IntensityAnalysis reports per-crop sales intensity for a buyer over the
// lookback window.
func (s *MetricsService) IntensityAnalysis(ctx context.Context, buyerID int64) ([]domain.IntensityAnalysis, error) {
	balances, err := s.stocks.ListBalances(ctx, buyerID, false)
	if err != nil {
		return nil, err
	}

	cropNames, err := s.cropNames(ctx)
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, 0, -s.lookbackDays)
	analyses := make([]domain.IntensityAnalysis, 0, len(balances))
	for i := range balances {
		b := &balances[i]
		consumed, err := s.stocks.SumConsumptionKg(ctx, buyerID, b.CropID, since)
		if err != nil {
			return nil, err
		}

		unitCost := 0.0
		if b.UnitCostUSD != nil {
			unitCost = *b.UnitCostUSD
		}
		result := metrics.Compute(metrics.Input{
			LookbackDays:       s.lookbackDays,
			TotalConsumptionKg: consumed,
			CurrentQuantityKg:  b.CurrentQuantityKg,
			UnitCostUSD:        unitCost,
			LeadTimeDays:       b.LeadTimeDays,
		})

		analyses = append(analyses, domain.IntensityAnalysis{
			CropID:              b.CropID,
			CropName:            cropNames[b.CropID],
			InventoryTurnover:   result.InventoryTurnover,
			DaysOfInventory:     result.DaysOfInventory,
			SalesIntensityCode:  result.SalesIntensityCode,
			TotalConsumptionKg:  consumed,
			AvgDailyConsumption: result.AverageDailyUsageKg,
			DaysToSellout:       result.DaysToSellout,
			Recommendation:      result.SalesIntensityCode.Recommendation(),
		})
	}

	return analyses, nil
}

// ReorderSuggestions lists balances at or below their reorder point with a
// suggested replenishment quantity.
func (s *MetricsService) ReorderSuggestions(ctx context.Context, buyerID int64) ([]domain.ReorderSuggestion, error) {
	balances, err := s.stocks.ListBalances(ctx, buyerID, false)
	if err != nil {
		return nil, err
	}

	cropNames, err := s.cropNames(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := make([]domain.ReorderSuggestion, 0)
	for i := range balances {
		b := &balances[i]
		if b.ReorderPointKg == nil || b.CurrentQuantityKg > *b.ReorderPointKg {
			continue
		}

		var preferredKg *float64
		pref, err := s.prefs.Get(ctx, buyerID, b.CropID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if pref != nil {
			preferredKg = pref.ReorderQuantityKg
		}

		var stockoutDays *float64
		if b.AverageDailyUsageKg != nil && *b.AverageDailyUsageKg > 0 {
			d := b.CurrentQuantityKg / *b.AverageDailyUsageKg
			stockoutDays = &d
		}

		suggestions = append(suggestions, domain.ReorderSuggestion{
			CropID:              b.CropID,
			CropName:            cropNames[b.CropID],
			CurrentStockKg:      b.CurrentQuantityKg,
			ReorderPointKg:      b.ReorderPointKg,
			SafetyStockKg:       b.SafetyStockKg,
			SuggestedReorderKg:  metrics.SuggestReorderKg(b.AverageDailyUsageKg, b.MinimumStockCoverDays, b.CurrentQuantityKg, preferredKg),
			DaysUntilStockout:   stockoutDays,
			AverageDailyUsageKg: b.AverageDailyUsageKg,
			Urgency:             metrics.StockoutUrgency(stockoutDays),
		})
	}

	return suggestions, nil
}

// CalculateReorderPoint runs the reorder-point formula on demand for one
// buyer and crop without persisting anything.
func (s *MetricsService) CalculateReorderPoint(ctx context.Context, buyerID, cropID int64) (*domain.ReorderPointResult, error) {
	since := s.now().AddDate(0, 0, -s.lookbackDays)
	consumed, err := s.stocks.SumConsumptionKg(ctx, buyerID, cropID, since)
	if err != nil {
		return nil, err
	}

	leadTime := metrics.DefaultLeadTimeDays
	current := 0.0
	balance, err := s.stocks.GetBalance(ctx, buyerID, cropID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if balance != nil {
		leadTime = balance.LeadTimeDays
		current = balance.CurrentQuantityKg
	}

	result := metrics.Compute(metrics.Input{
		LookbackDays:       s.lookbackDays,
		TotalConsumptionKg: consumed,
		CurrentQuantityKg:  current,
		LeadTimeDays:       leadTime,
	})

	return &domain.ReorderPointResult{
		CropID:              cropID,
		AverageDailyUsageKg: result.AverageDailyUsageKg,
		LeadTimeDays:        leadTime,
		SafetyStockKg:       result.SafetyStockKg,
		ReorderPointKg:      result.ReorderPointKg,
		MinimumCoverDays:    result.DaysOfStockCover,
	}, nil
}

func (s *MetricsService) cropNames(ctx context.Context) (map[int64]string, error) {
	crops, err := s.catalog.ListActiveCrops(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(crops))
	for _, c := range crops {
		names[c.ID] = c.Name
	}
	return names, nil
}
