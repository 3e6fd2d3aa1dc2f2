package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresFromDB(sqlx.NewDb(db, "sqlmock"), logging.Discard()), mock
}

func TestSetIfAbsentFirstSighting(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	mock.ExpectQuery("INSERT INTO processed_events").
		WithArgs("wamid.1", int64(43200)).
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("wamid.1"))

	recorded, err := postgres.SetIfAbsent(context.Background(), "wamid.1", 12*time.Hour)
	assert.NoError(t, err)
	assert.True(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetIfAbsentLiveRowExists(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	mock.ExpectQuery("INSERT INTO processed_events").
		WithArgs("wamid.1", int64(43200)).
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}))

	recorded, err := postgres.SetIfAbsent(context.Background(), "wamid.1", 12*time.Hour)
	assert.NoError(t, err)
	assert.False(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetIfAbsentError(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	mock.ExpectQuery("INSERT INTO processed_events").
		WillReturnError(errors.New("connection reset"))

	recorded, err := postgres.SetIfAbsent(context.Background(), "wamid.1", time.Hour)
	assert.Error(t, err)
	assert.False(t, recorded)
}

func TestDeleteExpiredEvents(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	mock.ExpectExec("DELETE FROM processed_events WHERE expires_at <= now\\(\\)").
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := postgres.DeleteExpiredEvents(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingPurger struct {
	calls int
	err   error
}

func (c *countingPurger) DeleteExpiredEvents(context.Context) (int64, error) {
	c.calls++
	return 3, c.err
}

func TestSweeperRunOnce(t *testing.T) {
	purger := &countingPurger{}
	sweeper, err := NewSweeper(purger, "", logging.Discard())
	require.NoError(t, err)

	sweeper.RunOnce()
	purger.err = errors.New("boom")
	sweeper.RunOnce()

	assert.Equal(t, 2, purger.calls)
}

func TestSweeperBadSpec(t *testing.T) {
	_, err := NewSweeper(&countingPurger{}, "every tuesday-ish", logging.Discard())
	assert.Error(t, err)
}

func TestSweeperStartStop(t *testing.T) {
	sweeper, err := NewSweeper(&countingPurger{}, "@every 1h", logging.Discard())
	require.NoError(t, err)

	sweeper.Start()
	sweeper.Stop()
}
