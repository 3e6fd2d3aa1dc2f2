// Package counter tracks a few named tallies that chat members bump up and down.
package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrInvalidInput = errors.New("invalid counter input")
	ErrUnknownItem  = errors.New("unknown counter item")
)

// Item is a counter name plus the spellings users may type for it.
type Item struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// DefaultItems are the counters the bot starts with.
var DefaultItems = []Item{
	{Name: "Cold Drink", Aliases: []string{"colddrink", "cold drink"}},
	{Name: "Chips"},
	{Name: "Ice Cream", Aliases: []string{"icecream", "ice cream"}},
}

// Store adds to counters atomically.
type Store interface {
	AddCount(ctx context.Context, item string, delta int64) (int64, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

type Counter struct {
	items  []Item
	lookup map[string]string
	store  Store
}

func New(store Store, items []Item) *Counter {
	if len(items) == 0 {
		items = DefaultItems
	}
	lookup := make(map[string]string)
	for _, item := range items {
		lookup[strings.ToLower(item.Name)] = item.Name
		for _, alias := range item.Aliases {
			lookup[strings.ToLower(alias)] = item.Name
		}
	}
	return &Counter{items: items, lookup: lookup, store: store}
}

// IsListRequest reports whether args asks for the current counts.
func IsListRequest(args string) bool {
	return strings.EqualFold(strings.TrimSpace(args), "count")
}

// Parse splits "<item> <delta>" at the last space. Item names may contain spaces.
func (c *Counter) Parse(args string) (item string, delta int64, err error) {
	args = strings.TrimSpace(args)
	i := strings.LastIndex(args, " ")
	if i < 0 {
		return "", 0, ErrInvalidInput
	}

	delta, err = strconv.ParseInt(strings.TrimSpace(args[i+1:]), 10, 64)
	if err != nil {
		return "", 0, ErrInvalidInput
	}

	name, ok := c.lookup[strings.ToLower(strings.TrimSpace(args[:i]))]
	if !ok {
		return "", 0, ErrUnknownItem
	}
	return name, delta, nil
}

// Add applies delta to item and returns the full report.
func (c *Counter) Add(ctx context.Context, item string, delta int64) (string, error) {
	if _, err := c.store.AddCount(ctx, item, delta); err != nil {
		return "", err
	}
	report, err := c.Report(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s count updated.\n%s", item, report), nil
}

// Report lists every configured item in order. Items never touched count as zero.
func (c *Counter) Report(ctx context.Context) (string, error) {
	counts, err := c.store.Counts(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Current count-")
	for _, item := range c.items {
		fmt.Fprintf(&b, "\n%s: %d", item.Name, counts[item.Name])
	}
	return b.String(), nil
}

// MemoryStore keeps counters in process.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]int64)}
}

func (m *MemoryStore) AddCount(_ context.Context, item string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[item] += delta
	return m.counts[item], nil
}

func (m *MemoryStore) Counts(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}
