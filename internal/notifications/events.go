package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"network/internal/middleware"
	"network/internal/observability"
)

// Feed event types.
const (
	EventPostCreated         = "post_created"
	EventPostDeleted         = "post_deleted"
	EventPostReactionUpdated = "post_reaction_updated"
)

// Event is the envelope written to WebSocket clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode renders an event envelope.
func Encode(eventType string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	out, err := json.Marshal(Event{Type: eventType, Payload: body})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return string(out), nil
}

// Publisher delivers events to every live connection. With Redis the event
// goes through pub/sub so that each instance's hub receives it exactly once;
// without Redis it goes straight to the local hub.
type Publisher struct {
	hub      *Hub
	notifier *Notifier
}

func NewPublisher(hub *Hub, notifier *Notifier) *Publisher {
	return &Publisher{hub: hub, notifier: notifier}
}

// Publish never fails the caller; delivery problems are logged.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) {
	if p == nil {
		return
	}
	message, err := Encode(eventType, payload)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "encode feed event", "event", eventType, "error", err)
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()

	if p.notifier.Enabled() {
		err := p.notifier.PublishBroadcast(ctx, message)
		if err == nil {
			return
		}
		middleware.Logger.WarnContext(ctx, "publish feed event, delivering locally", "event", eventType, "error", err)
	}
	if p.hub != nil {
		p.hub.BroadcastAll(message)
	}
}
