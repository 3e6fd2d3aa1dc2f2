package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/keepalive"
	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/whatsapp"
	"github.com/joho/godotenv"
)

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// healthURL appends path to base, e.g. http://127.0.0.1:8080 -> http://127.0.0.1:8080/health
func healthURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func targets() []keepalive.Target {
	list := []keepalive.Target{
		{Name: "WhatsApp bot", HealthURL: getEnv("BOT_HEALTH_URL", "http://localhost:8000/healthz")},
		{Name: "Bot metrics", HealthURL: getEnv("METRICS_HEALTH_URL", "http://localhost:6060/healthz")},
	}
	if llm := os.Getenv("LLM_BASE_URL"); llm != "" {
		list = append(list, keepalive.Target{Name: "LLM", HealthURL: healthURL(llm, getEnv("LLM_HEALTH_PATH", "health"))})
	}
	return list
}

func newAlerter(logger *logging.Logger) (keepalive.Alerter, func() error, error) {
	switch kind := getEnv("ALERT_CHANNEL", "whatsapp"); kind {
	case "discord":
		a, err := keepalive.NewDiscordAlerter(getEnv("DISCORD_SECRET", ""), getEnv("DISCORD_ALERT_CHANNEL_ID", ""), getEnv("DISCORD_ALERT_USER_ID", ""), logger)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case "whatsapp":
		client := whatsapp.NewClient(whatsapp.Config{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", whatsapp.DefaultAPIVersion),
		}, logger)
		a, err := keepalive.NewWhatsAppAlerter(client, splitList(getEnv("ALERT_ADMINS", "")), logger)
		if err != nil {
			return nil, nil, err
		}
		return a, func() error { return nil }, nil
	default:
		return nil, nil, errors.New("ALERT_CHANNEL must be whatsapp or discord, got " + kind)
	}
}

func main() {
	_ = godotenv.Load()

	logLevel := getEnv("LOG_LEVEL", "info")
	checkInterval := getEnvInt("CHECK_INTERVAL", 60)
	alertInterval := getEnvInt("ALERT_INTERVAL", 3600)

	logger := logging.NewLogger(logging.LogLevel(logLevel), os.Stdout)

	alerter, closeAlerter, err := newAlerter(logger)
	if err != nil {
		logger.Error("failed to create alerter", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := closeAlerter(); err != nil {
			logger.Warn("failed to close alerter", "error", err.Error())
		}
	}()

	list := targets()
	monitor := keepalive.NewMonitor(
		list,
		time.Duration(checkInterval)*time.Second,
		time.Duration(alertInterval)*time.Second,
		alerter,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting keepalive monitor",
		"check_interval", checkInterval,
		"alert_interval", alertInterval,
		"monitored_targets", len(list))

	if err := monitor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("keepalive monitor error", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("keepalive monitor stopped")
}
