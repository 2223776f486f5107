package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mundamarket/stock-engine/internal/api/middleware"
	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
	"github.com/mundamarket/stock-engine/internal/service"
)

type AlertHandler struct {
	alerts *service.AlertService
}

func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts returns the buyer's alerts, newest first.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	filter := domain.AlertFilter{
		BuyerID:        middleware.GetBuyerID(c),
		IncludeExpired: c.Query("include_expired") == "true",
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := domain.ParseAlertStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("alert_type")); raw != "" {
		alertType := domain.AlertType(raw)
		filter.AlertType = &alertType
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	if alerts == nil {
		alerts = make([]domain.InventoryAlert, 0)
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// AcknowledgeAlert marks an active alert as seen.
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	h.transition(c, h.alerts.Acknowledge)
}

// DismissAlert dismisses an active or acknowledged alert.
func (h *AlertHandler) DismissAlert(c *gin.Context) {
	h.transition(c, h.alerts.Dismiss)
}

// GenerateAlerts triggers an alert run for the acting buyer. Safe to call
// repeatedly; existing active alerts are refreshed, not duplicated.
func (h *AlertHandler) GenerateAlerts(c *gin.Context) {
	buyerID := middleware.GetBuyerID(c)
	summary, err := h.alerts.GenerateAlerts(c.Request.Context(), &buyerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate alerts"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AlertHandler) transition(c *gin.Context, fn func(ctx context.Context, buyerID, alertID int64) error) {
	alertID, err := strconv.ParseInt(c.Param("alert_id"), 10, 64)
	if err != nil || alertID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert_id"})
		return
	}

	err = fn(c.Request.Context(), middleware.GetBuyerID(c), alertID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update alert"})
	}
}
