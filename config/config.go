package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/counter"
	"github.com/ARYAN-9099/whatsapp-bot-public/dedup"
	"github.com/ARYAN-9099/whatsapp-bot-public/ledger"
	"github.com/ARYAN-9099/whatsapp-bot-public/timeconv"
	"gopkg.in/yaml.v3"
)

const defaultHelpText = `*Available commands*
/help - this message
/ai <question> - ask the assistant
/bus - bus timetable
/all <message> - message everyone
/reminder <YYYY-MM-DD> <HH:MM> [AM|PM] <message> - one-off reminder
/chaitanya count | <item> <number> - snack counters
/yt <link> - YouTube to MP3
/gen <prompt> - generate an image
/img <query> - search for a photo
/m <take|give> <amount> [note] - update the ledger
/balance - show the ledger balance`

// BotConfig is the behaviour of the bot, loaded from YAML
type BotConfig struct {
	// HelpText is sent verbatim for /help
	HelpText string `yaml:"help_text"`

	// BusImageURL is the timetable image sent for /bus
	BusImageURL string `yaml:"bus_image_url"`

	// BroadcastRecipients receive /all messages. Duplicates are dropped on load.
	BroadcastRecipients []string `yaml:"broadcast_recipients"`

	// BroadcastPauseMillis is the pause between two broadcast sends
	BroadcastPauseMillis int `yaml:"broadcast_pause_ms"`

	// Timezone is the zone users type reminder times in
	Timezone string `yaml:"timezone"`

	Ledger       LedgerConfig   `yaml:"ledger"`
	CounterItems []counter.Item `yaml:"counter_items"`
	Dedup        DedupConfig    `yaml:"dedup"`
	Queue        QueueConfig    `yaml:"queue"`

	// ImageProvider selects the image generator: "stability" or "openai"
	ImageProvider string `yaml:"image_provider"`

	// EventTimeoutSeconds bounds the handling of a single inbound message
	EventTimeoutSeconds int `yaml:"event_timeout_seconds"`

	// LogMessages stores every accepted inbound message in postgres when a database is configured
	LogMessages bool `yaml:"log_messages"`
}

// LedgerConfig names the two parties and where the balance lives. An empty party list
// disables the ledger commands.
type LedgerConfig struct {
	BalanceRange string         `yaml:"balance_range"`
	LogRange     string         `yaml:"log_range"`
	Parties      []ledger.Party `yaml:"parties"`
}

type DedupConfig struct {
	// Backend is "redis", "postgres" or "memory"
	Backend    string `yaml:"backend"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	// Policy is "fail_closed" or "fail_open"
	Policy string `yaml:"policy"`
	// SweepSchedule is the cron spec for purging expired postgres rows
	SweepSchedule string `yaml:"sweep_schedule"`
}

type QueueConfig struct {
	Workers int `yaml:"workers"`
	Size    int `yaml:"size"`
}

// DefaultBotConfig returns a BotConfig with sensible defaults
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		HelpText:             defaultHelpText,
		BroadcastPauseMillis: 500,
		Timezone:             timeconv.DefaultSourceZone,
		Ledger: LedgerConfig{
			BalanceRange: "A1",
		},
		Dedup: DedupConfig{
			Backend:       "redis",
			TTLSeconds:    int(dedup.DefaultTTL / time.Second),
			Policy:        dedup.FailClosed.String(),
			SweepSchedule: "@every 1h",
		},
		Queue: QueueConfig{
			Workers: 4,
			Size:    100,
		},
		ImageProvider:       "stability",
		EventTimeoutSeconds: 120,
	}
}

// LoadBotConfig reads path over the defaults. An empty path returns the defaults.
func LoadBotConfig(path string) (*BotConfig, error) {
	config := DefaultBotConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read bot config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse bot config YAML: %w", err)
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid bot config: %w", err)
	}
	config.BroadcastRecipients = unique(config.BroadcastRecipients)
	if len(config.CounterItems) == 0 {
		config.CounterItems = counter.DefaultItems
	}
	return config, nil
}

func validateConfig(config *BotConfig) error {
	switch config.Dedup.Backend {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("dedup.backend must be redis, postgres or memory, got %q", config.Dedup.Backend)
	}
	if config.Dedup.TTLSeconds <= 0 {
		return fmt.Errorf("dedup.ttl_seconds must be positive, got %d", config.Dedup.TTLSeconds)
	}
	if _, err := dedup.ParsePolicy(config.Dedup.Policy); err != nil {
		return err
	}

	if _, err := timeconv.LoadZone(config.Timezone, timeconv.DefaultSourceZone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive, got %d", config.Queue.Workers)
	}
	if config.Queue.Size <= 0 {
		return fmt.Errorf("queue.size must be positive, got %d", config.Queue.Size)
	}
	if config.EventTimeoutSeconds <= 0 {
		return fmt.Errorf("event_timeout_seconds must be positive, got %d", config.EventTimeoutSeconds)
	}
	if config.BroadcastPauseMillis < 0 {
		return fmt.Errorf("broadcast_pause_ms must be non-negative, got %d", config.BroadcastPauseMillis)
	}

	switch config.ImageProvider {
	case "stability", "openai":
	default:
		return fmt.Errorf("image_provider must be stability or openai, got %q", config.ImageProvider)
	}

	parties := config.Ledger.Parties
	if len(parties) != 0 && len(parties) != 2 {
		return fmt.Errorf("ledger.parties needs exactly two entries, got %d", len(parties))
	}
	for i, item := range config.CounterItems {
		if item.Name == "" {
			return fmt.Errorf("counter_items %d: name is required", i)
		}
	}
	return nil
}

// DedupTTL returns the configured record lifetime.
func (c *BotConfig) DedupTTL() time.Duration {
	return time.Duration(c.Dedup.TTLSeconds) * time.Second
}

// EventTimeout returns the per-message deadline.
func (c *BotConfig) EventTimeout() time.Duration {
	return time.Duration(c.EventTimeoutSeconds) * time.Second
}

// BroadcastPause returns the delay between broadcast sends.
func (c *BotConfig) BroadcastPause() time.Duration {
	return time.Duration(c.BroadcastPauseMillis) * time.Millisecond
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
