// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"cmga_backend/platform/events"

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
// Delivery Domain Events
// =============================================================================

// DeliveryOutcome distinguishes a full delivery from a partial round.
type DeliveryOutcome string

const (
	// OutcomeDelivered means every ordered line reached zero remaining.
	OutcomeDelivered DeliveryOutcome = "livrée"
	// OutcomePartial means at least one line still has remaining quantity.
	OutcomePartial DeliveryOutcome = "livraison partielle"
)

// DeliveryNoteCreated is published when the processing workflow persists a
// new delivery note, pending or already validated.
type DeliveryNoteCreated struct {
	BaseEvent
	NoteID        int64  `json:"noteId"`
	InvoiceID     int64  `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	DriverID      int64  `json:"driverId"`
	ActorID       int64  `json:"actorId"`
	ActorRole     string `json:"actorRole"`
	Pending       bool   `json:"pending"`
}

func (e DeliveryNoteCreated) EventName() string { return "delivery.note.created" }

// DeliveryNoteValidated is published when a note becomes final, either
// immediately (single-check depot) or through the confirmation gate. The
// admin alerting subsystem consumes this event.
type DeliveryNoteValidated struct {
	BaseEvent
	NoteID        int64           `json:"noteId"`
	InvoiceID     int64           `json:"invoiceId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	ActorID       int64           `json:"actorId"`
	ActorRole     string          `json:"actorRole"`
	Outcome       DeliveryOutcome `json:"outcome"`
	TotalCents    int64           `json:"totalCents"`
}

func (e DeliveryNoteValidated) EventName() string { return "delivery.note.validated" }

// InvoiceCompleted is published when an invoice transitions to LIVREE with
// every line fully delivered.
type InvoiceCompleted struct {
	BaseEvent
	InvoiceID     int64  `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	NoteID        int64  `json:"noteId"`
	ActorID       int64  `json:"actorId"`
}

func (e InvoiceCompleted) EventName() string { return "delivery.invoice.completed" }

// =============================================================================
// Notification Domain Events
// =============================================================================

// NotificationOutboxDue is published by the scheduler worker when an outbox
// record should be processed.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notification.outbox.due" }
