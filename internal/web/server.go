// Package web serves the companion mini-app API over gin. All /api routes
// authenticate with Telegram init-data; moderation routes additionally
// require an admin caller.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/service"
)

// Server owns the gin engine and the underlying http.Server.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	cfg    *config.Config
}

func NewServer(
	cfg *config.Config,
	users *service.UserService,
	goals *service.GoalService,
	participations *service.ParticipationService,
	recommendations *service.RecommendationService,
) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), Logger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Web.Origin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID", "X-Telegram-Init-Data"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gh := newGoalHandlers(goals, participations, cfg)
	uh := newUserHandlers(users, goals, participations)
	rh := newRecommendationHandlers(recommendations, cfg)

	api := engine.Group("/api", InitDataAuth(cfg))
	gh.register(api)
	uh.register(api)
	rh.register(api)

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg: cfg,
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", s.srv.Addr).Msg("web server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
