package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/counter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadBotConfig(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   bool
		errMsg    string
		checkFunc func(t *testing.T, config *BotConfig)
	}{
		{
			name: "valid config",
			content: `
help_text: "just ask"
bus_image_url: "https://i.ibb.co/bus.png"
broadcast_recipients: ["919000000001", "918000000002", "919000000001"]
timezone: "America/New_York"
ledger:
  balance_range: "Ledger!A1"
  log_range: "Log!A:F"
  parties:
    - {id: "919000000001", name: "aryan", take_sign: -1}
    - {id: "918000000002", name: "chaitanya", take_sign: 1}
dedup:
  backend: postgres
  ttl_seconds: 3600
  policy: fail_open
queue:
  workers: 8
  size: 10
image_provider: openai
`,
			checkFunc: func(t *testing.T, config *BotConfig) {
				assert.Equal(t, "just ask", config.HelpText)
				assert.Equal(t, []string{"919000000001", "918000000002"}, config.BroadcastRecipients)
				assert.Equal(t, "America/New_York", config.Timezone)
				assert.Len(t, config.Ledger.Parties, 2)
				assert.Equal(t, int64(-1), config.Ledger.Parties[0].TakeSign)
				assert.Equal(t, "postgres", config.Dedup.Backend)
				assert.Equal(t, time.Hour, config.DedupTTL())
				assert.Equal(t, 8, config.Queue.Workers)
				assert.Equal(t, "openai", config.ImageProvider)
			},
		},
		{
			name:    "defaults applied",
			content: `bus_image_url: "https://i.ibb.co/bus.png"`,
			checkFunc: func(t *testing.T, config *BotConfig) {
				assert.Equal(t, defaultHelpText, config.HelpText)
				assert.Equal(t, "Asia/Kolkata", config.Timezone)
				assert.Equal(t, 12*time.Hour, config.DedupTTL())
				assert.Equal(t, "fail_closed", config.Dedup.Policy)
				assert.Equal(t, 2*time.Minute, config.EventTimeout())
				assert.Equal(t, 500*time.Millisecond, config.BroadcastPause())
				assert.Equal(t, counter.DefaultItems, config.CounterItems)
			},
		},
		{
			name:    "unknown backend",
			content: "dedup:\n  backend: etcd\n",
			wantErr: true,
			errMsg:  "dedup.backend",
		},
		{
			name:    "bad policy",
			content: "dedup:\n  policy: maybe\n",
			wantErr: true,
			errMsg:  "unknown dedup policy",
		},
		{
			name:    "bad timezone",
			content: "timezone: Mars/Olympus_Mons\n",
			wantErr: true,
			errMsg:  "timezone",
		},
		{
			name:    "one ledger party",
			content: "ledger:\n  parties:\n    - {id: \"1\", name: a, take_sign: -1}\n",
			wantErr: true,
			errMsg:  "exactly two",
		},
		{
			name:    "zero workers",
			content: "queue:\n  workers: 0\n",
			wantErr: true,
			errMsg:  "queue.workers",
		},
		{
			name:    "bad yaml",
			content: "help_text: [unterminated",
			wantErr: true,
			errMsg:  "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadBotConfig(writeConfig(t, tt.content))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, config)
		})
	}
}

func TestLoadBotConfigEmptyPath(t *testing.T) {
	config, err := LoadBotConfig("")
	require.NoError(t, err)
	assert.Equal(t, "redis", config.Dedup.Backend)
}

func TestLoadBotConfigMissingFile(t *testing.T) {
	_, err := LoadBotConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "106540352242922")
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify")
	t.Setenv("PORT", "9000")
	t.Setenv("WHATSAPP_API_VERSION", "")

	secrets := FromEnv()
	assert.Equal(t, "token", secrets.WhatsAppToken)
	assert.Equal(t, "v21.0", secrets.WhatsAppAPIVersion)
	assert.Equal(t, 9000, secrets.Port)
	assert.NoError(t, secrets.Validate())

	secrets.WhatsAppVerifyToken = ""
	assert.ErrorContains(t, secrets.Validate(), "WHATSAPP_VERIFY_TOKEN")
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))

	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 7))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("DOTENV_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("DOTENV_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("DOTENV_TEST_VALUE"))
}

func TestExampleConfigLoads(t *testing.T) {
	config, err := LoadBotConfig(filepath.Join("..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Len(t, config.BroadcastRecipients, 2)
	assert.Len(t, config.Ledger.Parties, 2)
	assert.Equal(t, "Sheet1!A1", config.Ledger.BalanceRange)
	assert.Equal(t, 12*time.Hour, config.DedupTTL())
	assert.Equal(t, 500*time.Millisecond, config.BroadcastPause())
}
