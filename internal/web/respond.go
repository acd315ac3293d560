package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/models"
	"yolchi-backend/internal/service"
)

// fail maps service errors onto HTTP status codes with a uniform body.
func fail(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSelfJoin),
		errors.Is(err, service.ErrNotPublished),
		errors.Is(err, service.ErrGoalFinished),
		errors.Is(err, service.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
