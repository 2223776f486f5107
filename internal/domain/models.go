package domain

import "time"

// StockMovement is one immutable row in the stock ledger. QuantityKg is
// signed: positive for purchase/return/adjustment-in, negative for
// consumption/waste/adjustment-out. Rows are never updated or deleted.
type StockMovement struct {
	ID           int64        `json:"movement_id" db:"id"`
	BalanceID    int64        `json:"balance_id" db:"balance_id"`
	BuyerID      int64        `json:"buyer_id" db:"buyer_id"`
	CropID       int64        `json:"crop_id" db:"crop_id"`
	MovementType MovementType `json:"movement_type" db:"movement_type"`
	QuantityKg   float64      `json:"quantity_kg" db:"quantity_kg"`
	UnitCostUSD  *float64     `json:"unit_cost_usd" db:"unit_cost_usd"`
	TotalCostUSD *float64     `json:"total_cost_usd" db:"total_cost_usd"`
	OrderID      *int64       `json:"order_id" db:"order_id"`
	OrderItemID  *int64       `json:"order_item_id" db:"order_item_id"`
	Notes        *string      `json:"notes" db:"notes"`
	OccurredAt   time.Time    `json:"occurred_at" db:"occurred_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// StockBalance is the mutable per-(buyer, crop) balance derived from the
// ledger. The ledger is the only writer of CurrentQuantityKg; the metrics
// recompute path is the only writer of the derived reorder fields.
type StockBalance struct {
	ID                    int64          `json:"balance_id" db:"id"`
	BuyerID               int64          `json:"buyer_id" db:"buyer_id"`
	CropID                int64          `json:"crop_id" db:"crop_id"`
	CurrentQuantityKg     float64        `json:"current_quantity_kg" db:"current_quantity_kg"`
	ReservedQuantityKg    float64        `json:"reserved_quantity_kg" db:"reserved_quantity_kg"`
	PurchaseDate          *time.Time     `json:"purchase_date" db:"purchase_date"`
	ExpiryDate            *time.Time     `json:"expiry_date" db:"expiry_date"`
	ShelfLifeDays         *int           `json:"shelf_life_days" db:"shelf_life_days"`
	BatchNumber           *string        `json:"batch_number" db:"batch_number"`
	SupplierOrderID       *int64         `json:"supplier_order_id" db:"supplier_order_id"`
	UnitCostUSD           *float64       `json:"unit_cost_usd" db:"unit_cost_usd"`
	TotalValueUSD         *float64       `json:"total_value_usd" db:"total_value_usd"`
	ReorderPointKg        *float64       `json:"reorder_point_kg" db:"reorder_point_kg"`
	SafetyStockKg         *float64       `json:"safety_stock_kg" db:"safety_stock_kg"`
	LeadTimeDays          int            `json:"lead_time_days" db:"lead_time_days"`
	AverageDailyUsageKg   *float64       `json:"average_daily_usage_kg" db:"average_daily_usage_kg"`
	MinimumStockCoverDays int            `json:"minimum_stock_cover_days" db:"minimum_stock_cover_days"`
	SalesIntensityCode    *IntensityCode `json:"sales_intensity_code" db:"sales_intensity_code"`
	InventoryTurnover     *float64       `json:"inventory_turnover" db:"inventory_turnover"`
	DaysOfInventory       *float64       `json:"days_of_inventory" db:"days_of_inventory"`
	IsActive              bool           `json:"is_active" db:"is_active"`
	IsExpired             bool           `json:"is_expired" db:"is_expired"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at" db:"updated_at"`
	LastMovementAt        *time.Time     `json:"last_movement_at" db:"last_movement_at"`
}

// InventoryPreference holds a buyer's monitoring thresholds for one crop.
type InventoryPreference struct {
	ID                       int64      `json:"preference_id" db:"id"`
	BuyerID                  int64      `json:"buyer_id" db:"buyer_id"`
	CropID                   int64      `json:"crop_id" db:"crop_id"`
	MinStockThresholdKg      float64    `json:"min_stock_threshold_kg" db:"min_stock_threshold_kg"`
	ReorderQuantityKg        *float64   `json:"reorder_quantity_kg" db:"reorder_quantity_kg"`
	MaxStockThresholdKg      *float64   `json:"max_stock_threshold_kg" db:"max_stock_threshold_kg"`
	DaysBeforeHarvestAlert   int        `json:"days_before_harvest_alert" db:"days_before_harvest_alert"`
	DaysAfterHarvestAlert    int        `json:"days_after_harvest_alert" db:"days_after_harvest_alert"`
	AvgMonthlyConsumptionKg  *float64   `json:"average_monthly_consumption_kg" db:"average_monthly_consumption_kg"`
	LastOrderDate            *time.Time `json:"last_order_date" db:"last_order_date"`
	LastOrderQuantityKg      *float64   `json:"last_order_quantity_kg" db:"last_order_quantity_kg"`
	EnableLowStockAlerts     bool       `json:"enable_low_stock_alerts" db:"enable_low_stock_alerts"`
	EnableHarvestAlerts      bool       `json:"enable_harvest_alerts" db:"enable_harvest_alerts"`
	EnablePriceAlerts        bool       `json:"enable_price_alerts" db:"enable_price_alerts"`
	AlertFrequency           string     `json:"alert_frequency" db:"alert_frequency"`
	NotificationChannelsJSON *string    `json:"notification_channels" db:"notification_channels"`
	IsFavorite               bool       `json:"is_favorite" db:"is_favorite"`
	Priority                 int        `json:"priority" db:"priority"`
	CreatedAt                time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at" db:"updated_at"`
}

// NotificationChannels is the decoded form of a preference's channel JSON.
type NotificationChannels struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	InApp bool `json:"in_app"`
}

// InventoryAlert is a generated alert row. At most one ACTIVE alert exists
// per (buyer, crop, alert_type); expired alerts are filtered, not deleted.
type InventoryAlert struct {
	ID             int64         `json:"alert_id" db:"id"`
	BuyerID        int64         `json:"buyer_id" db:"buyer_id"`
	CropID         *int64        `json:"crop_id" db:"crop_id"`
	ListingID      *int64        `json:"listing_id" db:"listing_id"`
	LotID          *int64        `json:"lot_id" db:"lot_id"`
	AlertType      AlertType     `json:"alert_type" db:"alert_type"`
	Severity       AlertSeverity `json:"severity" db:"severity"`
	Status         AlertStatus   `json:"status" db:"status"`
	Title          string        `json:"title" db:"title"`
	Message        string        `json:"message" db:"message"`
	AlertDataJSON  *string       `json:"alert_data" db:"alert_data"`
	ActionURL      *string       `json:"action_url" db:"action_url"`
	ActionText     *string       `json:"action_text" db:"action_text"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at" db:"acknowledged_at"`
	ResolvedAt     *time.Time    `json:"resolved_at" db:"resolved_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
	ExpiresAt      *time.Time    `json:"expires_at" db:"expires_at"`
}

// StockHistory is an append-only snapshot of market-wide supply and pricing
// for one crop, written on a schedule and read back for price-change deltas.
type StockHistory struct {
	ID                  int64     `json:"history_id" db:"id"`
	CropID              int64     `json:"crop_id" db:"crop_id"`
	TotalAvailableKg    float64   `json:"total_available_kg" db:"total_available_kg"`
	TotalReservedKg     float64   `json:"total_reserved_kg" db:"total_reserved_kg"`
	TotalSoldKg         float64   `json:"total_sold_kg" db:"total_sold_kg"`
	RemainingKg         float64   `json:"remaining_kg" db:"remaining_kg"`
	AvgPricePerKg       *float64  `json:"avg_price_per_kg" db:"avg_price_per_kg"`
	MinPricePerKg       *float64  `json:"min_price_per_kg" db:"min_price_per_kg"`
	MaxPricePerKg       *float64  `json:"max_price_per_kg" db:"max_price_per_kg"`
	ActiveListingsCount int       `json:"active_listings_count" db:"active_listings_count"`
	RecordedAt          time.Time `json:"recorded_at" db:"recorded_at"`
}

// MarketSupply aggregates available lot quantities across all farmers for a
// crop; used for low-stock alerts and history snapshots.
type MarketSupply struct {
	TotalAvailableKg    float64  `db:"total_available_kg"`
	TotalReservedKg     float64  `db:"total_reserved_kg"`
	TotalSoldKg         float64  `db:"total_sold_kg"`
	ActiveListingsCount int      `db:"active_listings_count"`
	AvgPricePerKg       *float64 `db:"avg_price_per_kg"`
	MinPricePerKg       *float64 `db:"min_price_per_kg"`
	MaxPricePerKg       *float64 `db:"max_price_per_kg"`
}

// RemainingKg is market supply net of reservations and completed sales.
func (s MarketSupply) RemainingKg() float64 {
	return s.TotalAvailableKg - s.TotalReservedKg - s.TotalSoldKg
}

// CropInfo is the slice of the crop catalog this service consumes.
type CropInfo struct {
	ID                int64    `db:"id"`
	Name              string   `db:"name"`
	PerishabilityDays *int     `db:"perishability_days"`
	BasePricePerKg    *float64 `db:"base_price_per_kg"`
	IsActive          bool     `db:"is_active"`
}

// HarvestPlan is an upcoming production-plan harvest window.
type HarvestPlan struct {
	PlanID          int64     `db:"plan_id"`
	CropID          int64     `db:"crop_id"`
	Status          string    `db:"status"`
	WindowStart     time.Time `db:"window_start"`
	ExpectedYieldKg *float64  `db:"expected_yield_kg"`
}

// BuyerContact is the notification endpoint data for a buyer.
type BuyerContact struct {
	BuyerID int64   `db:"buyer_id"`
	Email   *string `db:"email"`
	Phone   *string `db:"phone"`
}

// DeliveredItem is one line of a delivered order.
type DeliveredItem struct {
	OrderItemID int64
	ListingID   int64
	QtyKg       float64
	DeliveredKg float64
	UnitPrice   float64
}

// DeliveredOrder is the order-fulfillment event payload that feeds the ledger.
type DeliveredOrder struct {
	OrderID     int64
	OrderNumber string
	BuyerID     int64
	DeliveredAt *time.Time
	Items       []DeliveredItem
}

// MovementFilter narrows ledger history queries.
type MovementFilter struct {
	BuyerID      int64
	CropID       *int64
	MovementType *MovementType
	Since        time.Time
	Limit        int
}

// AlertFilter narrows alert list queries.
type AlertFilter struct {
	BuyerID        int64
	Status         *AlertStatus
	AlertType      *AlertType
	IncludeExpired bool
	Limit          int
}
