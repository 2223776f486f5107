package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mundamarket/stock-engine/internal/api/handlers"
	"github.com/mundamarket/stock-engine/internal/api/middleware"
	"github.com/mundamarket/stock-engine/internal/service"
)

type Services struct {
	Ledger      *service.LedgerService
	Metrics     *service.MetricsService
	Alerts      *service.AlertService
	Preferences *service.PreferenceService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Buyer-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		inventoryGroup := apiGroup.Group("/inventory", middleware.BuyerID())

		if services.Ledger != nil && services.Metrics != nil {
			stockHandler := handlers.NewStockHandler(services.Ledger, services.Metrics)
			{
				inventoryGroup.GET("/dashboard", stockHandler.GetDashboard)
				inventoryGroup.GET("/stock", stockHandler.ListStock)
				inventoryGroup.POST("/movements", stockHandler.CreateMovement)
				inventoryGroup.GET("/movements", stockHandler.ListMovements)
				inventoryGroup.GET("/intensity", stockHandler.GetIntensityAnalysis)
				inventoryGroup.GET("/reorder-suggestions", stockHandler.GetReorderSuggestions)
				inventoryGroup.GET("/reorder-point/:crop_id", stockHandler.CalculateReorderPoint)
			}

			// Internal surface for the order service; gateway-authenticated,
			// no buyer header.
			apiGroup.POST("/internal/orders/delivered", stockHandler.SyncDeliveredOrder)
		}

		if services.Alerts != nil {
			alertHandler := handlers.NewAlertHandler(services.Alerts)
			alertGroup := inventoryGroup.Group("/alerts")
			{
				alertGroup.GET("", alertHandler.ListAlerts)
				alertGroup.POST("/generate", alertHandler.GenerateAlerts)
				alertGroup.POST("/:alert_id/acknowledge", alertHandler.AcknowledgeAlert)
				alertGroup.POST("/:alert_id/dismiss", alertHandler.DismissAlert)
			}
		}

		if services.Preferences != nil {
			preferenceHandler := handlers.NewPreferenceHandler(services.Preferences)
			preferenceGroup := inventoryGroup.Group("/preferences")
			{
				preferenceGroup.GET("", preferenceHandler.ListPreferences)
				preferenceGroup.POST("", preferenceHandler.CreatePreference)
				preferenceGroup.PUT("/:preference_id", preferenceHandler.UpdatePreference)
				preferenceGroup.DELETE("/:preference_id", preferenceHandler.DeletePreference)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
