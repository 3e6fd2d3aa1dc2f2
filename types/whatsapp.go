package types

import "time"

// InboundEvent is one inbound WhatsApp message delivered by the webhook.
type InboundEvent struct {
	ID         string    `db:"event_id"`
	Sender     string    `db:"sender"`
	Text       string    `db:"message"`
	Kind       string    `db:"kind"`
	ReceivedAt time.Time `db:"received_at"`
}

// HasText reports whether the event carries a text body worth routing.
func (e InboundEvent) HasText() bool {
	return e.Text != ""
}
