package domain

import "time"

// DashboardMetrics is the aggregate stock overview for one buyer.
type DashboardMetrics struct {
	TotalStockValueUSD float64 `json:"total_stock_value_usd"`
	TotalItems         int     `json:"total_items"`
	ItemsLowStock      int     `json:"items_low_stock"`
	ItemsExpiringSoon  int     `json:"items_expiring_soon"`
	ItemsExpired       int     `json:"items_expired"`
	TotalQuantityKg    float64 `json:"total_quantity_kg"`
	AverageDaysCover   float64 `json:"average_days_cover"`
}

// StockItem is one balance enriched with read-path classifications.
type StockItem struct {
	BalanceID           int64          `json:"balance_id"`
	CropID              int64          `json:"crop_id"`
	CropName            string         `json:"crop_name"`
	CurrentQuantityKg   float64        `json:"current_quantity_kg"`
	ReservedQuantityKg  float64        `json:"reserved_quantity_kg"`
	AvailableQuantityKg float64        `json:"available_quantity_kg"`
	ReorderPointKg      *float64       `json:"reorder_point_kg"`
	SafetyStockKg       *float64       `json:"safety_stock_kg"`
	DaysOfStockCover    *float64       `json:"days_of_stock_cover"`
	StockStatus         StockStatus    `json:"stock_status"`
	ExpiryDate          *time.Time     `json:"expiry_date"`
	DaysUntilExpiry     *int           `json:"days_until_expiry"`
	ExpiryStatus        ExpiryStatus   `json:"expiry_status"`
	UnitCostUSD         *float64       `json:"unit_cost_usd"`
	TotalValueUSD       *float64       `json:"total_value_usd"`
	SalesIntensityCode  *IntensityCode `json:"sales_intensity_code"`
	InventoryTurnover   *float64       `json:"inventory_turnover"`
	DaysOfInventory     *float64       `json:"days_of_inventory"`
	LastMovementAt      *time.Time     `json:"last_movement_at"`
}

// IntensityAnalysis is the sales-intensity report row for one crop.
type IntensityAnalysis struct {
	CropID               int64         `json:"crop_id"`
	CropName             string        `json:"crop_name"`
	InventoryTurnover    float64       `json:"inventory_turnover"`
	DaysOfInventory      float64       `json:"days_of_inventory"`
	SalesIntensityCode   IntensityCode `json:"sales_intensity_code"`
	TotalConsumptionKg   float64       `json:"total_consumption_kg"`
	AvgDailyConsumption  float64       `json:"average_daily_consumption_kg"`
	DaysToSellout        *float64      `json:"days_to_sellout"`
	Recommendation       string        `json:"recommendation"`
}

// ReorderPointResult is the response of an on-demand reorder-point calculation.
type ReorderPointResult struct {
	CropID              int64    `json:"crop_id"`
	AverageDailyUsageKg float64  `json:"average_daily_usage_kg"`
	LeadTimeDays        int      `json:"lead_time_days"`
	SafetyStockKg       float64  `json:"safety_stock_kg"`
	ReorderPointKg      float64  `json:"calculated_reorder_point_kg"`
	MinimumCoverDays    *float64 `json:"minimum_stock_cover_days"`
}

// ReorderSuggestion recommends a replenishment for a balance at or below ROP.
type ReorderSuggestion struct {
	CropID              int64    `json:"crop_id"`
	CropName            string   `json:"crop_name"`
	CurrentStockKg      float64  `json:"current_stock_kg"`
	ReorderPointKg      *float64 `json:"reorder_point_kg"`
	SafetyStockKg       *float64 `json:"safety_stock_kg"`
	SuggestedReorderKg  float64  `json:"suggested_reorder_kg"`
	DaysUntilStockout   *float64 `json:"days_until_stockout"`
	AverageDailyUsageKg *float64 `json:"average_daily_usage_kg"`
	Urgency             string   `json:"urgency"`
}

// AlertSummary reports one alert-generation run.
type AlertSummary struct {
	Created   int `json:"alerts_created"`
	Updated   int `json:"alerts_updated"`
	Processed int `json:"total_processed"`
}
