// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"shelfscan_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Scan Domain Events
// =============================================================================

// ScanReceived is published when a shelf photo enters the pipeline,
// either via the API or the WhatsApp webhook.
type ScanReceived struct {
	BaseEvent
	ScanID  uuid.UUID `json:"scanId"`
	StoreID uuid.UUID `json:"storeId"`
	Source  string    `json:"source"` // "api" or "whatsapp"
}

func (e ScanReceived) EventName() string { return "scans.scan.received" }

// ScanCompleted is published when a scan reaches the completed state.
// The neighborhood aggregation engine consumes this to fold the scan
// into the weekly demand rollup.
type ScanCompleted struct {
	BaseEvent
	ScanID       uuid.UUID `json:"scanId"`
	StoreID      uuid.UUID `json:"storeId"`
	Pincode      string    `json:"pincode"`
	HealthScore  int       `json:"healthScore"`
	ProductCount int       `json:"productCount"`
}

func (e ScanCompleted) EventName() string { return "scans.scan.completed" }

// ScanFailed is published when a scan reaches the failed state.
type ScanFailed struct {
	BaseEvent
	ScanID    uuid.UUID `json:"scanId"`
	StoreID   uuid.UUID `json:"storeId"`
	ErrorCode string    `json:"errorCode"`
}

func (e ScanFailed) EventName() string { return "scans.scan.failed" }

// =============================================================================
// Store Domain Events
// =============================================================================

// StoreRegistered is published when a new store signs up.
type StoreRegistered struct {
	BaseEvent
	StoreID uuid.UUID `json:"storeId"`
	Phone   string    `json:"phone"`
	Pincode string    `json:"pincode"`
}

func (e StoreRegistered) EventName() string { return "stores.store.registered" }

// =============================================================================
// Delivery Domain Events
// =============================================================================

// AdviceDelivered is published when a voice note or text fallback has been
// handed to the WhatsApp gateway for a completed scan.
type AdviceDelivered struct {
	BaseEvent
	ScanID  uuid.UUID `json:"scanId"`
	StoreID uuid.UUID `json:"storeId"`
	Channel string    `json:"channel"` // "voice" or "text"
}

func (e AdviceDelivered) EventName() string { return "voice.advice.delivered" }

// AdviceDeliveryFailed is published when delivery to the store failed after
// the scan itself completed. Delivery is retried independently of the scan.
type AdviceDeliveryFailed struct {
	BaseEvent
	ScanID  uuid.UUID `json:"scanId"`
	StoreID uuid.UUID `json:"storeId"`
	Reason  string    `json:"reason"`
}

func (e AdviceDeliveryFailed) EventName() string { return "voice.advice.delivery_failed" }

// =============================================================================
// Neighborhood Domain Events
// =============================================================================

// NeighborhoodUpdated is published after a scan has been folded into the
// weekly demand rollup for its pincode.
type NeighborhoodUpdated struct {
	BaseEvent
	Pincode   string    `json:"pincode"`
	WeekStart string    `json:"weekStart"` // ISO date, Monday
	ScanID    uuid.UUID `json:"scanId"`
}

func (e NeighborhoodUpdated) EventName() string { return "neighborhood.demand.updated" }
