// Package ledger keeps a single running balance between two parties.
//
// The balance is stored from the point of view of party A: a negative balance means A is
// owed money by B. "take" and "give" move it in opposite directions depending on which
// party sends them, which is captured by each party's TakeSign.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
)

var (
	ErrNotFound      = errors.New("ledger balance not found")
	ErrUnauthorized  = errors.New("sender is not a ledger party")
	ErrInvalidAction = errors.New("invalid ledger action")
	ErrInvalidInput  = errors.New("invalid ledger input")
)

const (
	ActionTake = "take"
	ActionGive = "give"
)

// Party is one side of the ledger. TakeSign is -1 when "take" decreases the stored balance
// for this party and +1 when it increases it.
type Party struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	TakeSign int64  `yaml:"take_sign"`
}

// Entry is one applied action, kept as an audit row.
type Entry struct {
	Time    time.Time
	Sender  string
	Action  string
	Amount  int64
	Note    string
	Balance int64
}

// Store persists the balance. GetBalance returns ErrNotFound when nothing was ever stored.
type Store interface {
	GetBalance(ctx context.Context) (int64, error)
	SetBalance(ctx context.Context, balance int64) error
	AppendEntry(ctx context.Context, entry Entry) error
}

type Ledger struct {
	mu      sync.Mutex
	store   Store
	parties map[string]Party
	other   map[string]Party
	now     func() time.Time
	logger  *logging.Logger
}

// New builds a ledger between a and b. Their TakeSigns must be opposite.
func New(store Store, a, b Party, logger *logging.Logger) (*Ledger, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		return nil, fmt.Errorf("ledger needs two distinct party ids, got %q and %q", a.ID, b.ID)
	}
	if a.TakeSign*b.TakeSign != -1 {
		return nil, fmt.Errorf("ledger parties must have opposite take signs, got %d and %d", a.TakeSign, b.TakeSign)
	}

	return &Ledger{
		store:   store,
		parties: map[string]Party{a.ID: a, b.ID: b},
		other:   map[string]Party{a.ID: b, b.ID: a},
		now:     time.Now,
		logger:  logger.Component("ledger"),
	}, nil
}

// ParseArgs splits "<take|give> <amount> [note]". The action is lower-cased but not
// validated here.
func ParseArgs(args string) (action string, amount int64, note string, err error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", 0, "", ErrInvalidInput
	}
	amount, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil || amount <= 0 {
		return "", 0, "", ErrInvalidInput
	}
	return strings.ToLower(fields[0]), amount, strings.Join(fields[2:], " "), nil
}

// Apply records action by sender and returns the new balance.
func (l *Ledger) Apply(ctx context.Context, sender, action string, amount int64, note string) (int64, error) {
	party, ok := l.parties[sender]
	if !ok {
		return 0, ErrUnauthorized
	}

	var delta int64
	switch action {
	case ActionTake:
		delta = party.TakeSign * amount
	case ActionGive:
		delta = -party.TakeSign * amount
	default:
		return 0, ErrInvalidAction
	}

	// read-modify-write is serialised per process only
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, err := l.current(ctx)
	if err != nil {
		return 0, err
	}
	balance += delta
	if err := l.store.SetBalance(ctx, balance); err != nil {
		return 0, fmt.Errorf("error storing balance: %w", err)
	}

	l.logger.WithContext(ctx).Info("ledger updated", "sender", sender, "action", action, "amount", amount, "balance", balance)

	entry := Entry{Time: l.now(), Sender: party.Name, Action: action, Amount: amount, Note: note, Balance: balance}
	if err := l.store.AppendEntry(ctx, entry); err != nil {
		l.logger.WithContext(ctx).Warn("error appending ledger entry", "error", err.Error())
	}
	return balance, nil
}

// Balance returns the stored balance for a party member.
func (l *Ledger) Balance(ctx context.Context, sender string) (int64, error) {
	if _, ok := l.parties[sender]; !ok {
		return 0, ErrUnauthorized
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current(ctx)
}

func (l *Ledger) current(ctx context.Context) (int64, error) {
	balance, err := l.store.GetBalance(ctx)
	if errors.Is(err, ErrNotFound) {
		l.logger.WithContext(ctx).Warn("no stored balance, starting from zero")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading balance: %w", err)
	}
	return balance, nil
}

// Describe phrases balance from sender's point of view.
func (l *Ledger) Describe(sender string, balance int64) string {
	party, ok := l.parties[sender]
	if !ok {
		return ""
	}
	other := l.other[sender].Name

	// owed > 0 means sender has to give money to the other party
	owed := -party.TakeSign * balance
	switch {
	case owed > 0:
		return fmt.Sprintf("You have to give %d to %s", owed, other)
	case owed < 0:
		return fmt.Sprintf("You have to take %d from %s", -owed, other)
	default:
		return fmt.Sprintf("You are all settled up with %s", other)
	}
}

// IsParty reports whether sender may use the ledger.
func (l *Ledger) IsParty(sender string) bool {
	_, ok := l.parties[sender]
	return ok
}
