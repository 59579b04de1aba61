package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/gratefultolord/badge_approval_bot/internal/approval"
	"github.com/gratefultolord/badge_approval_bot/internal/bot"
	"github.com/gratefultolord/badge_approval_bot/internal/config"
	"github.com/gratefultolord/badge_approval_bot/internal/dedup"
	"github.com/gratefultolord/badge_approval_bot/internal/files"
	"github.com/gratefultolord/badge_approval_bot/internal/reconcile"
	"github.com/gratefultolord/badge_approval_bot/internal/rewards"
	"github.com/gratefultolord/badge_approval_bot/internal/sla"
	"github.com/gratefultolord/badge_approval_bot/internal/webhook"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := dedup.Connect(cfg.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create telegram bot")
	}

	sender := bot.NewTelegramSender(botAPI)
	fetcher := files.NewEvidenceService(botAPI)
	sessions := bot.NewSessions()
	dedupStore := dedup.NewPostgresStore(db)
	client := approval.NewClient(cfg.ApprovalBaseURL, cfg.ApprovalToken, logger)
	rewardLookup := rewards.NewSheetLookup(cfg.RewardSheetURL, logger)

	botService := bot.New(sender, fetcher, sessions, dedupStore, client, client, rewardLookup, logger)

	keys := reconcile.NewKeys()
	worker := reconcile.NewWorker(client, sessions, sender, keys, reconcile.Policy{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
	}, logger)

	registry := reconcile.NewRegistry(func(requestID string) {
		worker.Run(ctx, requestID)
	}, logger)

	monitor := sla.NewMonitor(sessions, sender, cfg.SLADeadline, cfg.SLASweepInterval, logger)
	go monitor.Run(ctx)

	handler := webhook.NewHandler(registry, logger)
	server := &http.Server{Addr: cfg.ListenAddr, Handler: handler.Router()}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("webhook server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("webhook server failed")
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		server.Shutdown(shutdownCtx)
		botAPI.StopReceivingUpdates()
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	logger.Info().Str("username", botAPI.Self.UserName).Msg("bot started")

	botService.Run(updates)
}
