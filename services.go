package main

import (
	"context"
	"os"

	"github.com/ARYAN-9099/whatsapp-bot-public/ai"
	"github.com/ARYAN-9099/whatsapp-bot-public/bot"
	"github.com/ARYAN-9099/whatsapp-bot-public/config"
	"github.com/ARYAN-9099/whatsapp-bot-public/counter"
	"github.com/ARYAN-9099/whatsapp-bot-public/database"
	"github.com/ARYAN-9099/whatsapp-bot-public/dedup"
	"github.com/ARYAN-9099/whatsapp-bot-public/imagegen"
	"github.com/ARYAN-9099/whatsapp-bot-public/imgbb"
	"github.com/ARYAN-9099/whatsapp-bot-public/ledger"
	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/sheets"
	"github.com/ARYAN-9099/whatsapp-bot-public/unsplash"
	"github.com/ARYAN-9099/whatsapp-bot-public/whatsapp"
	"github.com/ARYAN-9099/whatsapp-bot-public/ytmp3"
	"github.com/pkg/errors"
)

// infra holds the stateful backends that need closing on shutdown.
type infra struct {
	db      *database.Postgres
	redis   *dedup.RedisStore
	sweeper *database.Sweeper
	gate    *dedup.Gate
	logger  *logging.Logger
}

func setupInfra(ctx context.Context, cfg *config.BotConfig, secrets config.Secrets, logger *logging.Logger) (*infra, error) {
	in := &infra{logger: logger}

	if secrets.PostgresURL != "" {
		db, err := database.NewPostgres(secrets.PostgresURL, logger)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to postgres")
		}
		in.db = db
	}

	policy, err := dedup.ParsePolicy(cfg.Dedup.Policy)
	if err != nil {
		in.Close()
		return nil, err
	}

	var store dedup.Store
	switch cfg.Dedup.Backend {
	case "redis":
		if secrets.RedisURL == "" {
			in.Close()
			return nil, errors.New("dedup backend redis needs REDIS_URL")
		}
		rs, err := dedup.NewRedisStore(ctx, secrets.RedisURL)
		if err != nil {
			in.Close()
			return nil, errors.Wrap(err, "connecting to redis")
		}
		in.redis = rs
		store = rs
	case "postgres":
		if in.db == nil {
			in.Close()
			return nil, errors.New("dedup backend postgres needs POSTGRES_URL")
		}
		sweeper, err := database.NewSweeper(in.db, cfg.Dedup.SweepSchedule, logger)
		if err != nil {
			in.Close()
			return nil, errors.Wrap(err, "scheduling dedup sweep")
		}
		sweeper.Start()
		in.sweeper = sweeper
		store = in.db
	default:
		logger.Warn("using in-process dedup store; duplicates are not detected across restarts or instances")
		store = dedup.NewMemoryStore()
	}

	in.gate = dedup.NewGate(store, cfg.DedupTTL(), policy, logger)
	return in, nil
}

func (in *infra) Close() {
	if in.sweeper != nil {
		in.sweeper.Stop()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.logger.Warn("error closing redis", "error", err.Error())
		}
	}
	if in.db != nil {
		in.db.Close()
	}
}

// setupServices builds the optional backends. A command whose backend has no credentials
// answers that it is unavailable.
func setupServices(ctx context.Context, cfg *config.BotConfig, secrets config.Secrets, in *infra, wa *whatsapp.Client, logger *logging.Logger) (bot.Services, error) {
	svc := bot.Services{Sender: wa}

	if secrets.LLMBaseURL != "" || secrets.LLMAPIKey != "" {
		chat, err := ai.Setup(ai.Config{
			BaseURL: secrets.LLMBaseURL,
			Token:   secrets.LLMAPIKey,
			Model:   secrets.LLMModel,
		}, logger)
		if err != nil {
			return svc, errors.Wrap(err, "setting up llm")
		}
		svc.Chat = chat
	} else {
		logger.Warn("no LLM configured, /ai is disabled")
	}

	if secrets.UnsplashAccessKey != "" {
		svc.Images = unsplash.NewClient(secrets.UnsplashAccessKey)
	}
	if secrets.ImgBBAPIKey != "" {
		svc.Uploader = imgbb.NewClient(secrets.ImgBBAPIKey)
	}
	if secrets.RapidAPIKey != "" {
		svc.MP3 = ytmp3.NewClient(secrets.RapidAPIKey)
	}

	switch {
	case cfg.ImageProvider == "openai" && secrets.OpenAIAPIKey != "":
		svc.Generator = imagegen.NewOpenAI(secrets.OpenAIAPIKey, secrets.OpenAIBaseURL, "")
	case cfg.ImageProvider == "stability" && secrets.StabilityAPIKey != "":
		svc.Generator = imagegen.NewStability(secrets.StabilityAPIKey)
	}

	if in.db != nil {
		svc.Counter = counter.New(in.db, cfg.CounterItems)
	} else {
		svc.Counter = counter.New(counter.NewMemoryStore(), cfg.CounterItems)
	}

	l, err := setupLedger(ctx, cfg, secrets, logger)
	if err != nil {
		return svc, err
	}
	svc.Ledger = l
	return svc, nil
}

func setupLedger(ctx context.Context, cfg *config.BotConfig, secrets config.Secrets, logger *logging.Logger) (*ledger.Ledger, error) {
	parties := cfg.Ledger.Parties
	if len(parties) != 2 {
		logger.Info("no ledger parties configured, ledger commands are disabled")
		return nil, nil
	}

	var store ledger.Store
	if secrets.GoogleCredentialsFile != "" && secrets.SpreadsheetID != "" {
		creds, err := os.ReadFile(secrets.GoogleCredentialsFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading google credentials")
		}
		client, err := sheets.NewServiceAccountClient(ctx, creds, secrets.SpreadsheetID)
		if err != nil {
			return nil, errors.Wrap(err, "creating sheets client")
		}
		store = ledger.NewSheetStore(client, cfg.Ledger.BalanceRange, cfg.Ledger.LogRange)
	} else {
		logger.Warn("no spreadsheet configured, ledger balance is kept in memory")
		store = &ledger.MemoryStore{}
	}

	l, err := ledger.New(store, parties[0], parties[1], logger)
	if err != nil {
		return nil, errors.Wrap(err, "creating ledger")
	}
	return l, nil
}
