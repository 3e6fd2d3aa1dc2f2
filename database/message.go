package database

import (
	"context"
	"fmt"

	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"github.com/google/uuid"
)

type MessageWriter interface {
	InsertMessage(ctx context.Context, event types.InboundEvent, command types.Command) (uuid.UUID, error)
}

type inboundRow struct {
	types.InboundEvent
	UUID    uuid.UUID `db:"id"`
	Command string    `db:"command"`
}

// InsertMessage stores an inbound event that passed the dedup gate and returns the row id.
func (p *Postgres) InsertMessage(ctx context.Context, event types.InboundEvent, command types.Command) (uuid.UUID, error) {
	ID, err := uuid.NewUUID()
	if err != nil {
		p.logger.Error("error generating UUID", "error", err.Error())
		return uuid.UUID{}, fmt.Errorf("error generating UUID: %w", err)
	}

	row := inboundRow{InboundEvent: event, UUID: ID, Command: command.String()}
	query := `INSERT INTO inbound_messages (id, event_id, sender, message, command, received_at)
		VALUES (:id, :event_id, :sender, :message, :command, :received_at)`
	p.logger.Debug("inserting message into database", "messageID", ID, "sender", event.Sender)

	if _, err := p.connections.NamedExecContext(ctx, query, row); err != nil {
		p.logger.Error("error inserting message into database", "error", err.Error(), "messageID", ID)
		return uuid.UUID{}, fmt.Errorf("error inserting message: %w", err)
	}
	return ID, nil
}
