package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/models"
	"yolchi-backend/internal/service"
)

const webPageSize = 12

type goalHandlers struct {
	goals          *service.GoalService
	participations *service.ParticipationService
	cfg            *config.Config
}

func newGoalHandlers(goals *service.GoalService, participations *service.ParticipationService, cfg *config.Config) *goalHandlers {
	return &goalHandlers{goals: goals, participations: participations, cfg: cfg}
}

func (h *goalHandlers) register(r *gin.RouterGroup) {
	r.GET("/goals", h.list)
	r.GET("/goals/trending", h.trending)
	r.GET("/goals/stats", h.stats)
	r.GET("/goals/:id", h.get)
	r.POST("/goals", h.create)
	r.POST("/goals/:id/submit", h.submit)
	r.POST("/goals/:id/start", h.start)
	r.POST("/goals/:id/complete", h.complete)
	r.DELETE("/goals/:id", h.cancel)
	r.POST("/goals/:id/join", h.join)
	r.POST("/goals/:id/leave", h.leave)
	r.GET("/goals/:id/participants", h.participants)

	admin := r.Group("", AdminOnly(h.cfg))
	admin.POST("/goals/:id/approve", h.approve)
	admin.POST("/goals/:id/reject", h.reject)

	r.POST("/participations/:id/accept", h.acceptJoin)
	r.POST("/participations/:id/decline", h.declineJoin)
}

func (h *goalHandlers) list(c *gin.Context) {
	q := service.ListQuery{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
		Sort:     service.GoalSort(c.DefaultQuery("sort", string(service.SortNewest))),
	}

	goals, err := h.goals.Published(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	totalPages := (len(goals) + webPageSize - 1) / webPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * webPageSize
	end := start + webPageSize
	if end > len(goals) {
		end = len(goals)
	}

	c.JSON(http.StatusOK, gin.H{
		"goals":      goals[start:end],
		"page":       page,
		"totalPages": totalPages,
		"total":      len(goals),
	})
}

func (h *goalHandlers) trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "6"))
	goals, err := h.goals.Trending(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *goalHandlers) stats(c *gin.Context) {
	stats, err := h.goals.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *goalHandlers) get(c *gin.Context) {
	goal, err := h.goals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *goalHandlers) create(c *gin.Context) {
	var in models.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	goal, err := h.goals.Create(c.Request.Context(), callerID(c), in, models.WebDescriptionLimits)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *goalHandlers) submit(c *gin.Context) {
	if err := h.goals.SubmitForApproval(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "submitted"})
}

func (h *goalHandlers) approve(c *gin.Context) {
	goal, pubErr, err := h.goals.Approve(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{"goal": goal}
	if pubErr != nil {
		resp["publishError"] = gin.H{
			"kind":    pubErr.Kind,
			"message": pubErr.Error(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *goalHandlers) reject(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	goal, err := h.goals.Reject(c.Request.Context(), callerID(c), c.Param("id"), body.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *goalHandlers) start(c *gin.Context) {
	goal, err := h.goals.Start(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *goalHandlers) complete(c *gin.Context) {
	goal, err := h.goals.Complete(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *goalHandlers) cancel(c *gin.Context) {
	goal, err := h.goals.Cancel(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *goalHandlers) join(c *gin.Context) {
	p, created, err := h.participations.Join(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, p)
}

func (h *goalHandlers) leave(c *gin.Context) {
	p, err := h.participations.Leave(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *goalHandlers) participants(c *gin.Context) {
	members, err := h.participations.ForGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": members})
}

func (h *goalHandlers) acceptJoin(c *gin.Context) {
	p, err := h.participations.Accept(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *goalHandlers) declineJoin(c *gin.Context) {
	p, err := h.participations.Reject(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
