package domain

import "strings"

// MovementType classifies a ledger entry. Direction is encoded by the type;
// callers always submit positive magnitudes.
type MovementType string

const (
	MovementPurchase    MovementType = "purchase"
	MovementConsumption MovementType = "consumption"
	MovementWaste       MovementType = "waste"
	MovementAdjustment  MovementType = "adjustment"
	MovementReturn      MovementType = "return"
)

// ParseMovementType returns the movement type for a label (case-insensitive).
func ParseMovementType(label string) (MovementType, bool) {
	switch MovementType(strings.ToLower(label)) {
	case MovementPurchase, MovementConsumption, MovementWaste, MovementAdjustment, MovementReturn:
		return MovementType(strings.ToLower(label)), true
	}
	return "", false
}

// IntensityCode is the A/B/C/D sales-intensity classification.
type IntensityCode string

const (
	IntensityFast     IntensityCode = "A" // sold out in < 3 days
	IntensityNormal   IntensityCode = "B" // sold out in 3-7 days
	IntensitySlow     IntensityCode = "C" // sold out in > 7 days
	IntensityObsolete IntensityCode = "D" // no consumption
)

var intensityRecommendations = map[IntensityCode]string{
	IntensityFast:     "Fast moving - prioritize reorder",
	IntensityNormal:   "Normal moving - maintain regular orders",
	IntensitySlow:     "Slow moving - review ordering frequency",
	IntensityObsolete: "Consider promotions or reducing order quantity",
}

// Recommendation returns the buyer-facing advice for an intensity code.
func (c IntensityCode) Recommendation() string {
	if r, ok := intensityRecommendations[c]; ok {
		return r
	}
	return intensityRecommendations[IntensityObsolete]
}

// StockStatus is the read-path stock level classification.
type StockStatus string

const (
	StockSafe     StockStatus = "safe"
	StockLow      StockStatus = "low"
	StockCritical StockStatus = "critical"
	StockReorder  StockStatus = "reorder"
)

// ExpiryStatus is the read-path perishability classification.
type ExpiryStatus string

const (
	ExpiryFresh       ExpiryStatus = "fresh"
	ExpiryApproaching ExpiryStatus = "approaching"
	ExpiryExpired     ExpiryStatus = "expired"
)

// AlertType names the alert rules.
type AlertType string

const (
	AlertLowStock      AlertType = "low_stock"
	AlertHarvestWindow AlertType = "harvest_window"
	AlertPriceChange   AlertType = "price_change"
)

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus is the alert lifecycle state. Only the buyer moves an alert
// out of ACTIVE.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
	AlertDismissed    AlertStatus = "dismissed"
)

// ParseAlertStatus returns the status for a label (case-insensitive).
func ParseAlertStatus(label string) (AlertStatus, bool) {
	switch AlertStatus(strings.ToLower(label)) {
	case AlertActive, AlertAcknowledged, AlertResolved, AlertDismissed:
		return AlertStatus(strings.ToLower(label)), true
	}
	return "", false
}
