package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"yolchi-backend/internal/bot"
	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/notify"
	"yolchi-backend/internal/platform/telegram"
	"yolchi-backend/internal/publisher"
	"yolchi-backend/internal/service"
	"yolchi-backend/internal/session"
	"yolchi-backend/internal/storage"
	"yolchi-backend/internal/workers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("yolchi-bot", false)
		logger.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init("yolchi-bot", cfg.Debug)

	store, err := storage.NewFileStore(cfg.Storage.DataDir, cfg.Storage.Mode == config.StorageMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
	}

	var sessions session.Store
	if cfg.Redis.Enabled {
		rs, err := session.NewRedisStore(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer rs.Close()
		sessions = rs
	} else {
		ms := session.NewMemoryStore(0)
		defer ms.Close()
		sessions = ms
	}

	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Debug)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram connect failed")
	}

	channel := telegram.ChatRef{ID: cfg.Telegram.ChannelID, Username: cfg.Telegram.ChannelUsername}
	pub := publisher.New(client, store, channel, cfg.Telegram.BotUsername)
	notifier := notify.New(client)

	users := service.NewUserService(store)
	goals := service.NewGoalService(store, users, pub, notifier, cfg)
	participations := service.NewParticipationService(store, users, goals, pub, notifier, cfg)
	recommendations := service.NewRecommendationService(store)

	go workers.NewDeadlineWorker(goals, time.Hour).Run(ctx)

	b := bot.New(client, sessions, users, goals, participations, recommendations, cfg)
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
	logger.Info().Msg("bot stopped")
}
