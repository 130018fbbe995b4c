package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"salesdesk_backend/internal/events"
)

// RegisterHandlers subscribes the module to the domain events that produce
// in-app notifications.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), m)
	bus.Subscribe(events.LeadReopened{}.EventName(), m)
}

// Handle dispatches domain events to their notification handlers.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadStatusChanged:
		return m.handleLeadStatusChanged(ctx, e)
	case events.LeadReopened:
		return m.handleLeadReopened(ctx, e)
	}
	return nil
}

func (m *Module) handleLeadStatusChanged(ctx context.Context, e events.LeadStatusChanged) error {
	// The owner acted on their own lead; nothing to tell them.
	if e.ActorID == e.OwnerID {
		return nil
	}
	leadID := e.LeadID
	_, err := m.publisher.Publish(ctx, "lead.status",
		fmt.Sprintf("Lead moved from %s to %s", e.FromStatus, e.ToStatus),
		&leadID, []uuid.UUID{e.OwnerID})
	return err
}

func (m *Module) handleLeadReopened(ctx context.Context, e events.LeadReopened) error {
	if e.ActorID == e.OwnerID {
		return nil
	}
	leadID := e.LeadID
	_, err := m.publisher.Publish(ctx, "lead.reopened",
		fmt.Sprintf("Lead was reopened: %s", e.Reason),
		&leadID, []uuid.UUID{e.OwnerID})
	return err
}

var _ events.Handler = (*Module)(nil)
