// Package domain holds the scan pipeline's core types and state rules.
package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a scan.
type Status string

const (
	// StatusProcessing is the initial state while the pipeline runs.
	StatusProcessing Status = "processing"
	// StatusCompleted means extraction and debate both succeeded.
	StatusCompleted Status = "completed"
	// StatusFailed means the pipeline gave up; ErrorCode says why.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is final. Terminal scans never
// transition again; late pipeline results for them are discarded.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the status may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	return next == StatusCompleted || next == StatusFailed
}

// Stable error codes persisted onto failed scans.
const (
	ErrCodeInferenceError     = "inference_error"
	ErrCodeNoProductsDetected = "no_products_detected"
	ErrCodeDebateUnavailable  = "debate_engine_unavailable"
	ErrCodeDeliveryError      = "delivery_error"
)

// StockLevel describes how well a product is stocked on the shelf.
type StockLevel string

const (
	StockOutOfStock  StockLevel = "out_of_stock"
	StockLow         StockLevel = "low"
	StockAdequate    StockLevel = "adequate"
	StockOverstocked StockLevel = "overstocked"
)

// ParseStockLevel normalizes model output onto the StockLevel enum.
// Vision models drift between vocabularies, so synonyms are folded in.
func ParseStockLevel(raw string) StockLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "out_of_stock", "out-of-stock", "oos", "empty", "critical", "none":
		return StockOutOfStock
	case "low", "low_stock", "running_low", "almost_empty":
		return StockLow
	case "overstocked", "overstock", "excess", "full_overflow":
		return StockOverstocked
	default:
		return StockAdequate
	}
}

// DetectedProduct is one product identified on the shelf photo.
type DetectedProduct struct {
	ID          uuid.UUID  `json:"id"`
	ScanID      uuid.UUID  `json:"scanId"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	StockLevel  StockLevel `json:"stockLevel"`
	FacingCount int        `json:"facingCount"`
	Confidence  float64    `json:"confidence"`
}

// VisionResult is the normalized output of the extraction adapter.
type VisionResult struct {
	Products    []DetectedProduct `json:"products"`
	HealthScore int               `json:"healthScore"`
}

// Scan is a single shelf photo moving through the pipeline.
type Scan struct {
	ID                  uuid.UUID  `json:"id"`
	StoreID             uuid.UUID  `json:"storeId"`
	Status              Status     `json:"status"`
	Source              string     `json:"source"`
	PhotoKey            string     `json:"photoKey"`
	CapturedAt          *time.Time `json:"capturedAt,omitempty"`
	HealthScore         *int       `json:"healthScore,omitempty"`
	ProductCount        int        `json:"productCount"`
	CriticalItems       int        `json:"criticalItems"`
	FinalRecommendation *string    `json:"finalRecommendation,omitempty"`
	ErrorCode           *string    `json:"errorCode,omitempty"`
	ErrorMessage        *string    `json:"errorMessage,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
}

// stockWeights drive the stocking half of the health score. Overstocking
// ties up capital but the shelf is still sellable, so it is not penalized.
var stockWeights = map[StockLevel]float64{
	StockOutOfStock:  0,
	StockLow:         0.4,
	StockAdequate:    1,
	StockOverstocked: 1,
}

// minHealthyFacings is the facing count below which a slot looks sparse.
const minHealthyFacings = 2

// HealthScore computes the 0-100 shelf health score from detected products.
// Stocking contributes 70 points, facing presentation 30. An empty product
// list scores zero.
func HealthScore(products []DetectedProduct) int {
	if len(products) == 0 {
		return 0
	}

	var stockSum, facingOK float64
	for _, p := range products {
		stockSum += stockWeights[p.StockLevel]
		if p.FacingCount >= minHealthyFacings {
			facingOK++
		}
	}

	n := float64(len(products))
	score := math.Round(70*stockSum/n + 30*facingOK/n)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// CriticalCount returns how many products are out of stock.
func CriticalCount(products []DetectedProduct) int {
	count := 0
	for _, p := range products {
		if p.StockLevel == StockOutOfStock {
			count++
		}
	}
	return count
}
