package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ValuesClient is the part of the Sheets client the store needs.
type ValuesClient interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, values [][]any) error
	Append(ctx context.Context, rng string, values [][]any) error
}

// SheetStore keeps the balance in one spreadsheet cell and, when LogRange is set, appends
// every entry as a row.
type SheetStore struct {
	client       ValuesClient
	BalanceRange string
	LogRange     string
}

func NewSheetStore(client ValuesClient, balanceRange, logRange string) *SheetStore {
	if balanceRange == "" {
		balanceRange = "A1"
	}
	return &SheetStore{client: client, BalanceRange: balanceRange, LogRange: logRange}
}

func (s *SheetStore) GetBalance(ctx context.Context) (int64, error) {
	values, err := s.client.Get(ctx, s.BalanceRange)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return 0, ErrNotFound
	}

	raw := strings.TrimSpace(fmt.Sprint(values[0][0]))
	if raw == "" {
		return 0, ErrNotFound
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("balance cell %s holds %q: %w", s.BalanceRange, raw, err)
	}
	return int64(f), nil
}

func (s *SheetStore) SetBalance(ctx context.Context, balance int64) error {
	return s.client.Update(ctx, s.BalanceRange, [][]any{{balance}})
}

func (s *SheetStore) AppendEntry(ctx context.Context, e Entry) error {
	if s.LogRange == "" {
		return nil
	}
	row := []any{e.Time.Format(time.RFC3339), e.Sender, e.Action, e.Amount, e.Note, e.Balance}
	return s.client.Append(ctx, s.LogRange, [][]any{row})
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	balance *int64
	Entries []Entry
}

func (m *MemoryStore) GetBalance(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance == nil {
		return 0, ErrNotFound
	}
	return *m.balance, nil
}

func (m *MemoryStore) SetBalance(_ context.Context, balance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = &balance
	return nil
}

func (m *MemoryStore) AppendEntry(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return nil
}
