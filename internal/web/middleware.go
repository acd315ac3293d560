package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/service"
)

const (
	ctxUserID = "user_id"
	ctxSeed   = "seed"
)

// RequestID tags every request, honoring an inbound X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request processed")
	}
}

// InitDataAuth validates Telegram Mini Apps init-data from the
// X-Telegram-Init-Data header (or init_data query parameter) and puts the
// caller's id and identity seed on the context.
func InitDataAuth(cfg *config.Config) gin.HandlerFunc {
	expIn := time.Duration(cfg.Telegram.InitDataTTL) * time.Second

	return func(c *gin.Context) {
		raw := c.GetHeader("X-Telegram-Init-Data")
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Telegram init data required"})
			return
		}

		if err := initdata.Validate(raw, cfg.Telegram.BotToken, expIn); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil || parsed.User.ID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed init data"})
			return
		}

		c.Set(ctxUserID, parsed.User.ID)
		c.Set(ctxSeed, service.Seed{
			ID:           parsed.User.ID,
			FirstName:    parsed.User.FirstName,
			LastName:     parsed.User.LastName,
			Username:     parsed.User.Username,
			LanguageCode: parsed.User.LanguageCode,
		})
		c.Next()
	}
}

// AdminOnly rejects callers outside the configured admin set. Must run
// after InitDataAuth.
func AdminOnly(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.IsAdmin(callerID(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) int64 {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

func callerSeed(c *gin.Context) (service.Seed, bool) {
	v, ok := c.Get(ctxSeed)
	if !ok {
		return service.Seed{}, false
	}
	seed, ok := v.(service.Seed)
	return seed, ok
}
