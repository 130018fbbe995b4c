// Package events provides event bus infrastructure for decoupled,
// event-driven communication between modules.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is the base interface all domain events must implement.
type Event interface {
	// EventName returns a unique identifier for the event type.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow ordinary functions to be used as handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is the interface for publishing and subscribing to domain events.
type Bus interface {
	// Publish sends an event to all registered handlers for that event type.
	// Handlers are executed asynchronously by default.
	Publish(ctx context.Context, event Event)

	// PublishSync sends an event and waits for all handlers to complete.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for a specific event type.
	// The eventName should match the value returned by Event.EventName().
	Subscribe(eventName string, handler Handler)
}

// LeadStatusChanged is published after a lead moves to a new pipeline status.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     uuid.UUID
	OwnerID    uuid.UUID
	ActorID    uuid.UUID
	FromStatus string
	ToStatus   string
	ActivityID *uuid.UUID
	ActivityAt *time.Time
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadReopened is published when a terminal lead is reopened by an explicit override.
type LeadReopened struct {
	BaseEvent
	LeadID  uuid.UUID
	OwnerID uuid.UUID
	ActorID uuid.UUID
	Reason  string
}

func (e LeadReopened) EventName() string { return "leads.reopened" }

// LeadConverted is published after a closed-won lead has been fully converted
// into a client account and project.
type LeadConverted struct {
	BaseEvent
	LeadID    uuid.UUID
	ClientID  uuid.UUID
	ProjectID uuid.UUID
	OwnerID   uuid.UUID
	ActorID   uuid.UUID
}

func (e LeadConverted) EventName() string { return "leads.converted" }

// PaymentFollowUpSent is published after a payment reminder has been dispatched.
type PaymentFollowUpSent struct {
	BaseEvent
	ProjectID uuid.UUID
	ClientID  uuid.UUID
	ActorID   uuid.UUID
}

func (e PaymentFollowUpSent) EventName() string { return "projects.followup.sent" }
