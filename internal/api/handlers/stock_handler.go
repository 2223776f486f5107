package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mundamarket/stock-engine/internal/api/middleware"
	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
	"github.com/mundamarket/stock-engine/internal/service"
)

type StockHandler struct {
	ledger  *service.LedgerService
	metrics *service.MetricsService
}

func NewStockHandler(ledger *service.LedgerService, metrics *service.MetricsService) *StockHandler {
	return &StockHandler{ledger: ledger, metrics: metrics}
}

type movementRequest struct {
	CropID        int64    `json:"crop_id" binding:"required"`
	MovementType  string   `json:"movement_type" binding:"required"`
	QuantityKg    float64  `json:"quantity_kg" binding:"required"`
	Decrease      bool     `json:"decrease"`
	UnitCostUSD   *float64 `json:"unit_cost_usd"`
	ShelfLifeDays *int     `json:"shelf_life_days"`
	BatchNumber   *string  `json:"batch_number"`
	Notes         *string  `json:"notes"`
}

// CreateMovement records one ledger movement for the acting buyer.
func (h *StockHandler) CreateMovement(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	movementType, ok := domain.ParseMovementType(req.MovementType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown movement_type"})
		return
	}

	balance, movement, err := h.ledger.RecordMovement(c.Request.Context(), service.MovementInput{
		BuyerID:       middleware.GetBuyerID(c),
		CropID:        req.CropID,
		MovementType:  movementType,
		QuantityKg:    req.QuantityKg,
		Decrease:      req.Decrease,
		UnitCostUSD:   req.UnitCostUSD,
		ShelfLifeDays: req.ShelfLifeDays,
		BatchNumber:   req.BatchNumber,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrNoStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record movement"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"balance": balance, "movement": movement})
}

// ListMovements returns ledger history for the acting buyer.
func (h *StockHandler) ListMovements(c *gin.Context) {
	filter := domain.MovementFilter{BuyerID: middleware.GetBuyerID(c)}

	if raw := strings.TrimSpace(c.Query("crop_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.CropID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("movement_type")); raw != "" {
		if mt, ok := domain.ParseMovementType(raw); ok {
			filter.MovementType = &mt
		}
	}
	if days, err := strconv.Atoi(c.DefaultQuery("days", "30")); err == nil && days > 0 {
		filter.Since = time.Now().AddDate(0, 0, -days)
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	movements, err := h.ledger.Movements(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list movements"})
		return
	}
	if movements == nil {
		movements = make([]domain.StockMovement, 0)
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

// GetDashboard returns the aggregate stock overview.
func (h *StockHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.metrics.Dashboard(c.Request.Context(), middleware.GetBuyerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard"})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListStock returns the buyer's balances with read-path classifications.
func (h *StockHandler) ListStock(c *gin.Context) {
	includeExpired := c.Query("include_expired") == "true"

	items, err := h.metrics.StockItems(c.Request.Context(), middleware.GetBuyerID(c), includeExpired)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list stock"})
		return
	}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filtered := make([]domain.StockItem, 0, len(items))
		for _, item := range items {
			if string(item.StockStatus) == status {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GetIntensityAnalysis returns the per-crop sales intensity report.
func (h *StockHandler) GetIntensityAnalysis(c *gin.Context) {
	analyses, err := h.metrics.IntensityAnalysis(c.Request.Context(), middleware.GetBuyerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze intensity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}

// GetReorderSuggestions lists balances due for replenishment.
func (h *StockHandler) GetReorderSuggestions(c *gin.Context) {
	suggestions, err := h.metrics.ReorderSuggestions(c.Request.Context(), middleware.GetBuyerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build suggestions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// CalculateReorderPoint runs the reorder-point formula for one crop.
func (h *StockHandler) CalculateReorderPoint(c *gin.Context) {
	cropID, err := strconv.ParseInt(c.Param("crop_id"), 10, 64)
	if err != nil || cropID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crop_id"})
		return
	}

	result, err := h.metrics.CalculateReorderPoint(c.Request.Context(), middleware.GetBuyerID(c), cropID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to calculate reorder point"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type deliveredOrderRequest struct {
	OrderID     int64      `json:"order_id" binding:"required"`
	OrderNumber string     `json:"order_number"`
	BuyerID     int64      `json:"buyer_id" binding:"required"`
	DeliveredAt *time.Time `json:"delivered_at"`
	Items       []struct {
		OrderItemID int64   `json:"order_item_id" binding:"required"`
		ListingID   int64   `json:"listing_id" binding:"required"`
		QtyKg       float64 `json:"qty_kg"`
		DeliveredKg float64 `json:"delivered_kg"`
		UnitPrice   float64 `json:"unit_price"`
	} `json:"items" binding:"required"`
}

// SyncDeliveredOrder ingests an order-delivered event from the order
// service. Replays are no-ops.
func (h *StockHandler) SyncDeliveredOrder(c *gin.Context) {
	var req deliveredOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := domain.DeliveredOrder{
		OrderID:     req.OrderID,
		OrderNumber: req.OrderNumber,
		BuyerID:     req.BuyerID,
		DeliveredAt: req.DeliveredAt,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, domain.DeliveredItem{
			OrderItemID: item.OrderItemID,
			ListingID:   item.ListingID,
			QtyKg:       item.QtyKg,
			DeliveredKg: item.DeliveredKg,
			UnitPrice:   item.UnitPrice,
		})
	}

	synced, err := h.ledger.SyncFromOrder(c.Request.Context(), order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"synced_lines": synced})
}
