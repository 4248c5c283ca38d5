package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type ChallengeHandler struct {
	svc *services.ChallengeService
}

func NewChallengeHandler(svc *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{svc: svc}
}

type taskRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	Frequency     string   `json:"frequency"`
	TargetValue   *float64 `json:"target_value"`
	Unit          string   `json:"unit"`
	ScheduledTime string   `json:"scheduled_time"`
}

func (r taskRequest) input() services.TaskInput {
	return services.TaskInput{
		Name:          r.Name,
		Description:   r.Description,
		Type:          r.Type,
		Frequency:     r.Frequency,
		TargetValue:   r.TargetValue,
		Unit:          r.Unit,
		ScheduledTime: r.ScheduledTime,
	}
}

type createChallengeRequest struct {
	Type         string        `json:"type"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	DurationDays int           `json:"duration_days"`
	Tasks        []taskRequest `json:"tasks" binding:"dive"`
}

type updateChallengeRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
	Version      int    `json:"version"`
}

func (h *ChallengeHandler) RegisterRoutes(router *gin.RouterGroup) {
	challenges := router.Group("/challenges")
	{
		challenges.POST("", h.Create)
		challenges.GET("", h.List)
		challenges.GET("/:id", h.Get)
		challenges.PUT("/:id", h.Update)
		challenges.DELETE("/:id", h.Delete)

		challenges.POST("/:id/start", h.Start)
		challenges.POST("/:id/stop", h.Stop)
		challenges.POST("/:id/complete", h.Complete)
		challenges.POST("/:id/fail", h.Fail)

		challenges.POST("/:id/tasks", h.AddTask)
		challenges.DELETE("/:id/tasks/:taskId", h.RemoveTask)
	}
}

// Create godoc
// @Summary      Create a custom challenge
// @Tags         challenges
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createChallengeRequest  true  "Challenge"
// @Success      201   {object}  domain.Challenge
// @Failure      400   {object}  errorResponse
// @Router       /challenges [post]
func (h *ChallengeHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tasks := make([]services.TaskInput, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, t.input())
	}

	challenge, err := h.svc.Create(c.Request.Context(), services.CreateChallengeInput{
		UserID:       userID,
		Type:         req.Type,
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		Tasks:        tasks,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, challenge)
}

// List godoc
// @Summary      List the user's challenges with their tasks
// @Tags         challenges
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Challenge
// @Router       /challenges [get]
func (h *ChallengeHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	challenge, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// Update godoc
// @Summary      Edit name, description or duration
// @Description  Empty fields keep their value. A stale version answers 409.
// @Tags         challenges
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "Challenge ID"
// @Param        body  body      updateChallengeRequest  true  "Changes"
// @Success      200   {object}  domain.Challenge
// @Failure      409   {object}  errorResponse
// @Router       /challenges/{id} [put]
func (h *ChallengeHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	challenge, err := h.svc.Update(c.Request.Context(), services.UpdateChallengeInput{
		ID:           c.Param("id"),
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		Version:      req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChallengeHandler) lifecycle(c *gin.Context, apply func(ctx context.Context, id, userID string) (*domain.Challenge, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	challenge, err := apply(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// Start godoc
// @Summary      Start a challenge today
// @Description  Sets start and end dates and generates today's daily tasks.
// @Tags         challenges
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Challenge ID"
// @Success      200  {object}  domain.Challenge
// @Failure      409  {object}  errorResponse
// @Router       /challenges/{id}/start [post]
func (h *ChallengeHandler) Start(c *gin.Context) {
	h.lifecycle(c, h.svc.Start)
}

// Stop abandons a running challenge and discards its daily tasks.
func (h *ChallengeHandler) Stop(c *gin.Context) {
	h.lifecycle(c, h.svc.Stop)
}

func (h *ChallengeHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.svc.Complete)
}

func (h *ChallengeHandler) Fail(c *gin.Context) {
	h.lifecycle(c, h.svc.Fail)
}

func (h *ChallengeHandler) AddTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.svc.AddTask(c.Request.Context(), services.AddTaskInput{
		ChallengeID: c.Param("id"),
		UserID:      userID,
		Task:        req.input(),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *ChallengeHandler) RemoveTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.RemoveTask(c.Request.Context(), c.Param("id"), c.Param("taskId"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
