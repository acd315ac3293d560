package main

import (
	"context"
	"os/signal"
	"syscall"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/notify"
	"yolchi-backend/internal/platform/telegram"
	"yolchi-backend/internal/publisher"
	"yolchi-backend/internal/service"
	"yolchi-backend/internal/storage"
	"yolchi-backend/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("yolchi-web", false)
		logger.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init("yolchi-web", cfg.Debug)

	store, err := storage.NewFileStore(cfg.Storage.DataDir, cfg.Storage.Mode == config.StorageMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
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

	srv := web.NewServer(cfg, users, goals, participations, recommendations)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("web server stopped")
	}
	logger.Info().Msg("web server stopped")
}
