// Package bot wires inbound WhatsApp events to command handlers.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"github.com/ARYAN-9099/whatsapp-bot-public/router"
	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"github.com/google/uuid"
)

// DefaultEventTimeout bounds the work done for one inbound message.
const DefaultEventTimeout = 2 * time.Minute

// Gate decides whether an event was already processed.
type Gate interface {
	SeenOrRecord(ctx context.Context, eventID string) bool
}

// CommandHandler runs a routed command.
type CommandHandler interface {
	Handle(ctx context.Context, cmd types.Command, event types.InboundEvent) error
}

// ReadMarker sends read receipts.
type ReadMarker interface {
	MarkRead(ctx context.Context, messageID string) error
}

// MessageWriter stores accepted inbound messages.
type MessageWriter interface {
	InsertMessage(ctx context.Context, event types.InboundEvent, command types.Command) (uuid.UUID, error)
}

// Dispatcher runs gate, router and handler for each event and sends the read receipt.
type Dispatcher struct {
	gate     Gate
	handlers CommandHandler
	reads    ReadMarker
	messages MessageWriter
	timeout  time.Duration
	logger   *logging.Logger
}

// NewDispatcher builds a dispatcher. messages may be nil.
func NewDispatcher(gate Gate, handlers CommandHandler, reads ReadMarker, messages MessageWriter, timeout time.Duration, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	return &Dispatcher{
		gate:     gate,
		handlers: handlers,
		reads:    reads,
		messages: messages,
		timeout:  timeout,
		logger:   logger.Component("dispatcher"),
	}
}

// Handle processes one event. Events the gate has seen are dropped without side effects.
// Every other event gets exactly one read receipt, even when its handler fails or panics.
func (d *Dispatcher) Handle(ctx context.Context, event types.InboundEvent) {
	ctx = logging.ContextWithEventID(ctx, event.ID)
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	logger := d.logger.WithContext(ctx)

	if d.gate.SeenOrRecord(ctx, event.ID) {
		return
	}

	defer d.markRead(ctx, event.ID)

	cmd := router.Route(event.Text)
	defer func() {
		if r := recover(); r != nil {
			metrics.CommandErrors.WithLabelValues(cmd.String()).Inc()
			logger.Error("panic while handling message", "panic", fmt.Sprint(r), "command", cmd.String())
		}
	}()

	if d.messages != nil {
		if _, err := d.messages.InsertMessage(ctx, event, cmd); err != nil {
			logger.Warn("error storing inbound message", "error", err.Error())
		}
	}

	if cmd == types.CommandNone {
		logger.Debug("message without command", "sender", event.Sender)
		return
	}

	logger.Info("handling command", "command", cmd.String(), "sender", event.Sender)
	metrics.CommandTotal.WithLabelValues(cmd.String()).Inc()
	start := time.Now()

	err := d.handlers.Handle(ctx, cmd, event)
	metrics.CommandDuration.WithLabelValues(cmd.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CommandErrors.WithLabelValues(cmd.String()).Inc()
		logger.Error("command failed", "error", err.Error(), "command", cmd.String())
	}
}

// markRead runs on its own short deadline so a slow handler cannot starve the receipt.
func (d *Dispatcher) markRead(ctx context.Context, messageID string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	// failures are logged and counted by the client
	_ = d.reads.MarkRead(rctx, messageID)
}
