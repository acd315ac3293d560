package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yolchi-backend/internal/models"
	"yolchi-backend/internal/service"
)

type userHandlers struct {
	users          *service.UserService
	goals          *service.GoalService
	participations *service.ParticipationService
}

func newUserHandlers(users *service.UserService, goals *service.GoalService, participations *service.ParticipationService) *userHandlers {
	return &userHandlers{users: users, goals: goals, participations: participations}
}

func (h *userHandlers) register(r *gin.RouterGroup) {
	r.GET("/me", h.me)
	r.PATCH("/me", h.updateProfile)
	r.GET("/me/goals", h.myGoals)
	r.GET("/me/joined", h.joinedGoals)
}

// me registers the caller on first contact, so the mini-app works without
// the user ever having opened the bot chat.
func (h *userHandlers) me(c *gin.Context) {
	seed, ok := callerSeed(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	user, _, err := h.users.GetOrCreate(c.Request.Context(), seed)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *userHandlers) updateProfile(c *gin.Context) {
	var in models.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), callerID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *userHandlers) myGoals(c *gin.Context) {
	goals, err := h.goals.ByAuthor(c.Request.Context(), callerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *userHandlers) joinedGoals(c *gin.Context) {
	joined, err := h.participations.ForUser(c.Request.Context(), callerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"joined": joined})
}
