package whatsapp

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/types"
)

// Webhook is the subset of the Cloud API notification body the bot reads.
type Webhook struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *Text  `json:"text,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

// Status updates (sent, delivered, read) arrive on the same webhook and are ignored.
type Status struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// IsMessage reports whether the notification carries a user message: object is set and
// the first change of the first entry has at least one message.
func (w Webhook) IsMessage() bool {
	if w.Object == "" || len(w.Entry) == 0 || len(w.Entry[0].Changes) == 0 {
		return false
	}
	return len(w.Entry[0].Changes[0].Value.Messages) > 0
}

// Event converts the first message into an InboundEvent. Call IsMessage first.
func (w Webhook) Event() types.InboundEvent {
	value := w.Entry[0].Changes[0].Value
	msg := value.Messages[0]

	sender := msg.From
	if len(value.Contacts) > 0 && value.Contacts[0].WaID != "" {
		sender = value.Contacts[0].WaID
	}

	event := types.InboundEvent{
		ID:         msg.ID,
		Sender:     sender,
		Kind:       msg.Type,
		ReceivedAt: time.Now().UTC(),
	}
	if msg.Text != nil {
		event.Text = msg.Text.Body
	}
	if secs, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil {
		event.ReceivedAt = time.Unix(secs, 0).UTC()
	}
	return event
}

// ParseEvent decodes body and returns its message event. ok is false for malformed JSON,
// status-only notifications and anything else without a message.
func ParseEvent(body []byte) (event types.InboundEvent, ok bool) {
	var hook Webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return types.InboundEvent{}, false
	}
	if !hook.IsMessage() {
		return types.InboundEvent{}, false
	}
	return hook.Event(), true
}
