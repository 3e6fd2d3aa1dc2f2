package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/bot"
	"github.com/ARYAN-9099/whatsapp-bot-public/config"
	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"github.com/ARYAN-9099/whatsapp-bot-public/reminder"
	"github.com/ARYAN-9099/whatsapp-bot-public/whatsapp"
	"github.com/pkg/errors"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var configPath, logLevel, envFile, addr string
	flag.StringVar(&configPath, "config", "", "path to the bot YAML config (defaults are used when empty)")
	flag.StringVar(&logLevel, "logLevel", "info", "log level: debug, info, warn, error")
	flag.StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")
	flag.StringVar(&addr, "addr", "", "webhook listen address (defaults to :$PORT)")
	flag.Parse()

	logger := logging.NewLogger(logging.LogLevel(logLevel), os.Stdout)

	if err := run(logger, configPath, envFile, addr); err != nil {
		logger.Error("bot exited with error", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("bot stopped")
}

func run(logger *logging.Logger, configPath, envFile, addr string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	secrets := config.FromEnv()
	if err := secrets.Validate(); err != nil {
		return err
	}
	cfg, err := config.LoadBotConfig(configPath)
	if err != nil {
		return errors.Wrap(err, "loading bot config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// metrics, pprof and expvar
	metricsServer := metrics.SetupServer(secrets.MetricsAddr)
	go metricsServer.Run()

	backends, err := setupInfra(ctx, cfg, secrets, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	wa := whatsapp.NewClient(whatsapp.Config{
		AccessToken:   secrets.WhatsAppToken,
		PhoneNumberID: secrets.WhatsAppPhoneNumberID,
		APIVersion:    secrets.WhatsAppAPIVersion,
	}, logger)

	svc, err := setupServices(ctx, cfg, secrets, backends, wa, logger)
	if err != nil {
		return err
	}

	scheduler := reminder.NewScheduler(bot.ReminderDelivery(wa, 30*time.Second), logger)
	if err := scheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "starting reminder scheduler")
	}
	svc.Reminders = scheduler

	handlers := bot.NewHandlers(svc, bot.Settings{
		HelpText:            cfg.HelpText,
		BusImageURL:         cfg.BusImageURL,
		BroadcastRecipients: cfg.BroadcastRecipients,
		BroadcastPause:      cfg.BroadcastPause(),
		Timezone:            cfg.Timezone,
	}, logger)

	var messages bot.MessageWriter
	if cfg.LogMessages && backends.db != nil {
		messages = backends.db
	}
	dispatcher := bot.NewDispatcher(backends.gate, handlers, wa, messages, cfg.EventTimeout(), logger)

	queue := bot.NewQueue(dispatcher, cfg.Queue.Size, cfg.Queue.Workers, logger)
	queue.Start(ctx)

	if addr == "" {
		addr = fmt.Sprintf(":%d", secrets.Port)
	}
	server := whatsapp.NewServer(addr, whatsapp.WebhookConfig{
		VerifyToken: secrets.WhatsAppVerifyToken,
		AppSecret:   secrets.WhatsAppAppSecret,
	}, queue, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("whatsapp bot running", "addr", addr, "dedup", cfg.Dedup.Backend, "workers", cfg.Queue.Workers)

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err = <-serverErr:
		err = errors.Wrap(err, "webhook server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := server.Stop(shutdownCtx); serr != nil {
		logger.Warn("error stopping webhook server", "error", serr.Error())
	}
	queue.Stop()
	scheduler.Stop()
	if serr := metricsServer.Stop(shutdownCtx); serr != nil {
		logger.Warn("error stopping metrics server", "error", serr.Error())
	}
	return err
}
