package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mundamarket/stock-engine/internal/api/middleware"
	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
	"github.com/mundamarket/stock-engine/internal/service"
)

type PreferenceHandler struct {
	prefs *service.PreferenceService
}

func NewPreferenceHandler(prefs *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

type preferenceRequest struct {
	CropID                 int64    `json:"crop_id" binding:"required"`
	MinStockThresholdKg    float64  `json:"min_stock_threshold_kg" binding:"required"`
	ReorderQuantityKg      *float64 `json:"reorder_quantity_kg"`
	MaxStockThresholdKg    *float64 `json:"max_stock_threshold_kg"`
	DaysBeforeHarvestAlert int      `json:"days_before_harvest_alert"`
	DaysAfterHarvestAlert  int      `json:"days_after_harvest_alert"`
	EnableLowStockAlerts   *bool    `json:"enable_low_stock_alerts"`
	EnableHarvestAlerts    *bool    `json:"enable_harvest_alerts"`
	EnablePriceAlerts      *bool    `json:"enable_price_alerts"`
	AlertFrequency         string   `json:"alert_frequency"`
	NotificationChannels   *string  `json:"notification_channels"`
	IsFavorite             bool     `json:"is_favorite"`
	Priority               int      `json:"priority"`
}

func (r preferenceRequest) toDomain(buyerID int64) *domain.InventoryPreference {
	pref := &domain.InventoryPreference{
		BuyerID:                  buyerID,
		CropID:                   r.CropID,
		MinStockThresholdKg:      r.MinStockThresholdKg,
		ReorderQuantityKg:        r.ReorderQuantityKg,
		MaxStockThresholdKg:      r.MaxStockThresholdKg,
		DaysBeforeHarvestAlert:   r.DaysBeforeHarvestAlert,
		DaysAfterHarvestAlert:    r.DaysAfterHarvestAlert,
		EnableLowStockAlerts:     true,
		EnableHarvestAlerts:      true,
		EnablePriceAlerts:        false,
		AlertFrequency:           r.AlertFrequency,
		NotificationChannelsJSON: r.NotificationChannels,
		IsFavorite:               r.IsFavorite,
		Priority:                 r.Priority,
	}
	if r.EnableLowStockAlerts != nil {
		pref.EnableLowStockAlerts = *r.EnableLowStockAlerts
	}
	if r.EnableHarvestAlerts != nil {
		pref.EnableHarvestAlerts = *r.EnableHarvestAlerts
	}
	if r.EnablePriceAlerts != nil {
		pref.EnablePriceAlerts = *r.EnablePriceAlerts
	}
	return pref
}

// CreatePreference registers crop monitoring for the acting buyer.
func (h *PreferenceHandler) CreatePreference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := req.toDomain(middleware.GetBuyerID(c))
	if err := h.prefs.Create(c.Request.Context(), pref); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidThreshold):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrPreferenceExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create preference"})
		}
		return
	}

	c.JSON(http.StatusCreated, pref)
}

// UpdatePreference replaces a preference's settings.
func (h *PreferenceHandler) UpdatePreference(c *gin.Context) {
	preferenceID, err := strconv.ParseInt(c.Param("preference_id"), 10, 64)
	if err != nil || preferenceID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preference_id"})
		return
	}

	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := req.toDomain(middleware.GetBuyerID(c))
	pref.ID = preferenceID
	if err := h.prefs.Update(c.Request.Context(), pref); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidThreshold):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "preference not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preference"})
		}
		return
	}

	c.JSON(http.StatusOK, pref)
}

// DeletePreference removes crop monitoring.
func (h *PreferenceHandler) DeletePreference(c *gin.Context) {
	preferenceID, err := strconv.ParseInt(c.Param("preference_id"), 10, 64)
	if err != nil || preferenceID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preference_id"})
		return
	}

	if err := h.prefs.Delete(c.Request.Context(), middleware.GetBuyerID(c), preferenceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "preference not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListPreferences returns the buyer's monitored crops.
func (h *PreferenceHandler) ListPreferences(c *gin.Context) {
	prefs, err := h.prefs.List(c.Request.Context(), middleware.GetBuyerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list preferences"})
		return
	}
	if prefs == nil {
		prefs = make([]domain.InventoryPreference, 0)
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs, "count": len(prefs)})
}
