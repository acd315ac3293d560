// Package workers hosts the bot's background loops.
package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"yolchi-backend/internal/service"
)

// DeadlineWorker periodically closes active goals whose end date has
// passed, so a goal with a fixed duration does not stay open forever just
// because its author went quiet.
type DeadlineWorker struct {
	goals    *service.GoalService
	interval time.Duration
	log      zerolog.Logger
}

func NewDeadlineWorker(goals *service.GoalService, interval time.Duration) *DeadlineWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &DeadlineWorker{
		goals:    goals,
		interval: interval,
		log:      log.With().Str("component", "deadline-worker").Logger(),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *DeadlineWorker) Run(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("deadline worker started")

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("deadline worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	closed, err := w.goals.CompleteExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("deadline sweep failed")
		return
	}
	if len(closed) > 0 {
		w.log.Info().Int("closed", len(closed)).Msg("expired goals completed")
	}
}
