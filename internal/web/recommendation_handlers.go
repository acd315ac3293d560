package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/service"
)

type recommendationHandlers struct {
	recommendations *service.RecommendationService
	cfg             *config.Config
}

func newRecommendationHandlers(recommendations *service.RecommendationService, cfg *config.Config) *recommendationHandlers {
	return &recommendationHandlers{recommendations: recommendations, cfg: cfg}
}

func (h *recommendationHandlers) register(r *gin.RouterGroup) {
	r.GET("/recommendations", h.list)
	r.POST("/recommendations/:id/vote", h.vote)
	r.POST("/recommendations", AdminOnly(h.cfg), h.create)
}

func (h *recommendationHandlers) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	recs, err := h.recommendations.List(c.Request.Context(), c.Query("category"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *recommendationHandlers) vote(c *gin.Context) {
	var body struct {
		Like *bool `json:"like" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "like field required"})
		return
	}

	rec, err := h.recommendations.Vote(c.Request.Context(), c.Param("id"), *body.Like)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *recommendationHandlers) create(c *gin.Context) {
	var body struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description" binding:"required"`
		Category    string `json:"category" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, description and category are required"})
		return
	}

	rec, err := h.recommendations.Create(c.Request.Context(), body.Name, body.Description, body.Category)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
