package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestAddCount(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	mock.ExpectQuery("INSERT INTO item_counters").
		WithArgs("Chips", int64(-2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	count, err := postgres.AddCount(context.Background(), "Chips", -2)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCountError(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	mock.ExpectQuery("INSERT INTO item_counters").
		WillReturnError(errors.New("deadlock detected"))

	_, err := postgres.AddCount(context.Background(), "Chips", 1)
	assert.Error(t, err)
}

func TestCounts(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	rows := sqlmock.NewRows([]string{"item", "count"}).
		AddRow("Cold Drink", int64(2)).
		AddRow("Chips", int64(0))
	mock.ExpectQuery("SELECT item, count FROM item_counters").WillReturnRows(rows)

	counts, err := postgres.Counts(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, map[string]int64{"Cold Drink": 2, "Chips": 0}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMessage(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	event := types.InboundEvent{
		ID:         "wamid.9",
		Sender:     "919000000000",
		Text:       "/help",
		ReceivedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO inbound_messages").
		WithArgs(sqlmock.AnyArg(), event.ID, event.Sender, event.Text, "help", event.ReceivedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := postgres.InsertMessage(context.Background(), event, types.CommandHelp)
	assert.NoError(t, err)
	assert.NotEmpty(t, id.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
