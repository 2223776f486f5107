package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/notify"
	"github.com/mundamarket/stock-engine/internal/repository"
)

const (
	lowStockAlertTTL    = 7 * 24 * time.Hour
	harvestAlertTTL     = 7 * 24 * time.Hour
	priceAlertTTL       = 3 * 24 * time.Hour
	priceChangeMinPct   = 10.0
	priceSnapshotWindow = 24 * time.Hour
	urgentHarvestDays   = 3
)

// ErrInvalidTransition rejects alert status changes that do not start from
// a state the buyer can act on.
var ErrInvalidTransition = errors.New("alert is not in an actionable state")

// AlertService generates, lists, and resolves inventory alerts.
type AlertService struct {
	alerts   repository.AlertRepository
	prefs    repository.PreferenceRepository
	catalog  repository.CatalogRepository
	history  repository.HistoryRepository
	notifier notify.Notifier
	now      func() time.Time
}

func NewAlertService(
	alerts repository.AlertRepository,
	prefs repository.PreferenceRepository,
	catalog repository.CatalogRepository,
	history repository.HistoryRepository,
	notifier notify.Notifier,
) *AlertService {
	if notifier == nil {
		notifier = notify.NewNoopNotifier()
	}
	return &AlertService{
		alerts:   alerts,
		prefs:    prefs,
		catalog:  catalog,
		history:  history,
		notifier: notifier,
		now:      time.Now,
	}
}

// GenerateAlerts runs the low-stock and harvest-window rules over every
// matching preference. A nil buyerID means all buyers. Failures on one
// preference are logged and the run continues.
func (s *AlertService) GenerateAlerts(ctx context.Context, buyerID *int64) (*domain.AlertSummary, error) {
	prefs, err := s.prefs.ListForAlerts(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	summary := &domain.AlertSummary{}
	for i := range prefs {
		pref := &prefs[i]
		summary.Processed++

		crop, err := s.catalog.GetCrop(ctx, pref.CropID)
		if err != nil {
			log.Warn().Err(err).Int64("crop_id", pref.CropID).Msg("alerts: crop lookup failed")
			continue
		}

		if pref.EnableLowStockAlerts {
			if err := s.checkLowStock(ctx, pref, crop, summary); err != nil {
				log.Warn().Err(err).
					Int64("buyer_id", pref.BuyerID).
					Int64("crop_id", pref.CropID).
					Msg("alerts: low stock check failed")
			}
		}

		if pref.EnableHarvestAlerts {
			if err := s.checkHarvestWindow(ctx, pref, crop, summary); err != nil {
				log.Warn().Err(err).
					Int64("buyer_id", pref.BuyerID).
					Int64("crop_id", pref.CropID).
					Msg("alerts: harvest check failed")
			}
		}
	}

	log.Info().
		Int("processed", summary.Processed).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Msg("alert generation run complete")

	return summary, nil
}

// checkLowStock compares market-wide remaining supply against the buyer's
// threshold. An existing ACTIVE alert is refreshed in place so a buyer never
// accumulates duplicates for the same condition.
func (s *AlertService) checkLowStock(ctx context.Context, pref *domain.InventoryPreference, crop *domain.CropInfo, summary *domain.AlertSummary) error {
	supply, err := s.catalog.GetMarketSupply(ctx, pref.CropID)
	if err != nil {
		return err
	}

	remaining := supply.RemainingKg()
	if remaining >= pref.MinStockThresholdKg {
		return nil
	}

	severity := lowStockSeverity(remaining, pref.MinStockThresholdKg)
	expires := s.now().Add(lowStockAlertTTL)
	data := mustJSON(map[string]any{
		"remaining_kg":     remaining,
		"threshold_kg":     pref.MinStockThresholdKg,
		"active_listings":  supply.ActiveListingsCount,
		"avg_price_per_kg": supply.AvgPricePerKg,
	})

	alert := &domain.InventoryAlert{
		BuyerID:       pref.BuyerID,
		CropID:        &pref.CropID,
		AlertType:     domain.AlertLowStock,
		Severity:      severity,
		Status:        domain.AlertActive,
		Title:         fmt.Sprintf("Low stock: %s", crop.Name),
		Message:       fmt.Sprintf("Only %.1f kg of %s remains on the market, below your %.1f kg threshold.", remaining, crop.Name, pref.MinStockThresholdKg),
		AlertDataJSON: &data,
		ExpiresAt:     &expires,
	}

	created := false
	err = s.alerts.InTx(ctx, func(tx repository.AlertTxRepository) error {
		existing, err := tx.FindActiveForUpdate(ctx, pref.BuyerID, pref.CropID, domain.AlertLowStock)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			created = true
			return tx.Insert(ctx, alert)
		}

		existing.Severity = alert.Severity
		existing.Title = alert.Title
		existing.Message = alert.Message
		existing.AlertDataJSON = alert.AlertDataJSON
		existing.ExpiresAt = alert.ExpiresAt
		alert = existing
		return tx.Update(ctx, existing)
	})
	if err != nil {
		return err
	}

	if created {
		summary.Created++
		s.deliver(ctx, pref, alert)
	} else {
		summary.Updated++
	}
	return nil
}

// checkHarvestWindow alerts when an upcoming harvest for a monitored crop
// falls within the buyer's notice window. Unlike low stock, an existing
// ACTIVE alert is left untouched; the harvest date does not drift.
func (s *AlertService) checkHarvestWindow(ctx context.Context, pref *domain.InventoryPreference, crop *domain.CropInfo, summary *domain.AlertSummary) error {
	now := s.now()
	horizon := now.AddDate(0, 0, pref.DaysAfterHarvestAlert)
	plans, err := s.catalog.ListUpcomingHarvests(ctx, pref.CropID, now, horizon)
	if err != nil {
		return err
	}

	for i := range plans {
		plan := &plans[i]
		daysUntil := int(plan.WindowStart.Sub(now).Hours() / 24)
		if daysUntil > pref.DaysBeforeHarvestAlert {
			continue
		}

		severity := domain.SeverityLow
		if daysUntil <= urgentHarvestDays {
			severity = domain.SeverityMedium
		}
		expires := plan.WindowStart.Add(harvestAlertTTL)
		data := mustJSON(map[string]any{
			"plan_id":           plan.PlanID,
			"window_start":      plan.WindowStart.Format(time.RFC3339),
			"days_until":        daysUntil,
			"expected_yield_kg": plan.ExpectedYieldKg,
		})

		alert := &domain.InventoryAlert{
			BuyerID:       pref.BuyerID,
			CropID:        &pref.CropID,
			AlertType:     domain.AlertHarvestWindow,
			Severity:      severity,
			Status:        domain.AlertActive,
			Title:         fmt.Sprintf("Upcoming harvest: %s", crop.Name),
			Message:       fmt.Sprintf("A %s harvest is expected in %d days. Fresh supply will be available soon.", crop.Name, daysUntil),
			AlertDataJSON: &data,
			ExpiresAt:     &expires,
		}

		created := false
		err = s.alerts.InTx(ctx, func(tx repository.AlertTxRepository) error {
			_, err := tx.FindActiveForUpdate(ctx, pref.BuyerID, pref.CropID, domain.AlertHarvestWindow)
			if err == nil {
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			created = true
			return tx.Insert(ctx, alert)
		})
		if err != nil {
			return err
		}

		if created {
			summary.Created++
			s.deliver(ctx, pref, alert)
		}
		// One alert per crop regardless of how many plans are due.
		break
	}

	return nil
}

// CheckPriceAlerts compares current average listing prices against the most
// recent market snapshot and alerts on swings of 10% or more.
func (s *AlertService) CheckPriceAlerts(ctx context.Context, buyerID *int64) (*domain.AlertSummary, error) {
	prefs, err := s.prefs.ListForPriceAlerts(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	summary := &domain.AlertSummary{}
	for i := range prefs {
		pref := &prefs[i]
		summary.Processed++

		if err := s.checkPriceChange(ctx, pref, summary); err != nil {
			log.Warn().Err(err).
				Int64("buyer_id", pref.BuyerID).
				Int64("crop_id", pref.CropID).
				Msg("alerts: price check failed")
		}
	}

	return summary, nil
}

func (s *AlertService) checkPriceChange(ctx context.Context, pref *domain.InventoryPreference, summary *domain.AlertSummary) error {
	current, err := s.catalog.GetCurrentAvgPrice(ctx, pref.CropID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	now := s.now()
	snapshot, err := s.history.Latest(ctx, pref.CropID, now.Add(-priceSnapshotWindow))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if snapshot.AvgPricePerKg == nil || *snapshot.AvgPricePerKg <= 0 {
		return nil
	}

	pct := (*current - *snapshot.AvgPricePerKg) / *snapshot.AvgPricePerKg * 100
	if math.Abs(pct) < priceChangeMinPct {
		return nil
	}

	crop, err := s.catalog.GetCrop(ctx, pref.CropID)
	if err != nil {
		return err
	}

	direction := "risen"
	if pct < 0 {
		direction = "dropped"
	}
	expires := now.Add(priceAlertTTL)
	data := mustJSON(map[string]any{
		"current_price_per_kg":  *current,
		"previous_price_per_kg": *snapshot.AvgPricePerKg,
		"change_pct":            pct,
	})

	alert := &domain.InventoryAlert{
		BuyerID:       pref.BuyerID,
		CropID:        &pref.CropID,
		AlertType:     domain.AlertPriceChange,
		Severity:      domain.SeverityMedium,
		Status:        domain.AlertActive,
		Title:         fmt.Sprintf("Price change: %s", crop.Name),
		Message:       fmt.Sprintf("The average price of %s has %s %.1f%% to %.2f per kg.", crop.Name, direction, math.Abs(pct), *current),
		AlertDataJSON: &data,
		ExpiresAt:     &expires,
	}

	created := false
	err = s.alerts.InTx(ctx, func(tx repository.AlertTxRepository) error {
		_, err := tx.FindActiveForUpdate(ctx, pref.BuyerID, pref.CropID, domain.AlertPriceChange)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		created = true
		return tx.Insert(ctx, alert)
	})
	if err != nil {
		return err
	}

	if created {
		summary.Created++
		s.deliver(ctx, pref, alert)
	}
	return nil
}

// RecordStockHistory snapshots market supply and pricing for every active
// crop with stock on the market. Returns the number of snapshots written.
func (s *AlertService) RecordStockHistory(ctx context.Context) (int, error) {
	crops, err := s.catalog.ListActiveCrops(ctx)
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, crop := range crops {
		supply, err := s.catalog.GetMarketSupply(ctx, crop.ID)
		if err != nil {
			log.Warn().Err(err).Int64("crop_id", crop.ID).Msg("history: supply aggregation failed")
			continue
		}
		if supply.TotalAvailableKg <= 0 {
			continue
		}

		history := &domain.StockHistory{
			CropID:              crop.ID,
			TotalAvailableKg:    supply.TotalAvailableKg,
			TotalReservedKg:     supply.TotalReservedKg,
			TotalSoldKg:         supply.TotalSoldKg,
			RemainingKg:         supply.RemainingKg(),
			AvgPricePerKg:       supply.AvgPricePerKg,
			MinPricePerKg:       supply.MinPricePerKg,
			MaxPricePerKg:       supply.MaxPricePerKg,
			ActiveListingsCount: supply.ActiveListingsCount,
		}
		if err := s.history.Insert(ctx, history); err != nil {
			log.Warn().Err(err).Int64("crop_id", crop.ID).Msg("history: snapshot insert failed")
			continue
		}
		recorded++
	}

	return recorded, nil
}

// ListAlerts returns a buyer's alerts, newest first. Expired alerts are
// filtered out unless explicitly requested.
func (s *AlertService) ListAlerts(ctx context.Context, filter domain.AlertFilter) ([]domain.InventoryAlert, error) {
	return s.alerts.List(ctx, filter)
}

// Acknowledge moves an ACTIVE alert to ACKNOWLEDGED.
func (s *AlertService) Acknowledge(ctx context.Context, buyerID, alertID int64) error {
	alert, err := s.alerts.GetByID(ctx, buyerID, alertID)
	if err != nil {
		return err
	}
	if alert.Status != domain.AlertActive {
		return ErrInvalidTransition
	}
	return s.alerts.SetStatus(ctx, buyerID, alertID, domain.AlertAcknowledged, s.now())
}

// Dismiss moves an ACTIVE or ACKNOWLEDGED alert to DISMISSED.
func (s *AlertService) Dismiss(ctx context.Context, buyerID, alertID int64) error {
	alert, err := s.alerts.GetByID(ctx, buyerID, alertID)
	if err != nil {
		return err
	}
	if alert.Status != domain.AlertActive && alert.Status != domain.AlertAcknowledged {
		return ErrInvalidTransition
	}
	return s.alerts.SetStatus(ctx, buyerID, alertID, domain.AlertDismissed, s.now())
}

func (s *AlertService) deliver(ctx context.Context, pref *domain.InventoryPreference, alert *domain.InventoryAlert) {
	channels := notify.ParseChannels(pref.NotificationChannelsJSON)
	if !channels.Email && !channels.SMS {
		return
	}

	contact, err := s.catalog.GetBuyerContact(ctx, pref.BuyerID)
	if err != nil {
		log.Warn().Err(err).Int64("buyer_id", pref.BuyerID).Msg("alerts: buyer contact lookup failed")
		return
	}
	s.notifier.Send(ctx, contact, channels, alert)
}

// lowStockSeverity grades how far remaining market supply has fallen below
// the buyer's threshold.
func lowStockSeverity(remainingKg, thresholdKg float64) domain.AlertSeverity {
	switch {
	case remainingKg <= 0:
		return domain.SeverityCritical
	case remainingKg < thresholdKg*0.5:
		return domain.SeverityHigh
	case remainingKg < thresholdKg*0.75:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func mustJSON(v map[string]any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(payload)
}
