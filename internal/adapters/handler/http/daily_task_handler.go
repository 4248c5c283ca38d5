package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type DailyTaskHandler struct {
	svc       *services.DailyTaskService
	generator *services.TaskGenerator
	clock     services.Clock
}

func NewDailyTaskHandler(svc *services.DailyTaskService, generator *services.TaskGenerator, clock services.Clock) *DailyTaskHandler {
	return &DailyTaskHandler{
		svc:       svc,
		generator: generator,
		clock:     clock,
	}
}

type versionRequest struct {
	Version int `json:"version"`
}

type completeRequest struct {
	Value   *float64 `json:"value"`
	Version int      `json:"version"`
}

type logValueRequest struct {
	Value   *float64 `json:"value" binding:"required"`
	Version int      `json:"version"`
}

type notesRequest struct {
	Notes   string `json:"notes"`
	Version int    `json:"version"`
}

type generateResponse struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
	Skipped bool   `json:"skipped,omitempty"`
}

func (h *DailyTaskHandler) RegisterRoutes(router *gin.RouterGroup) {
	daily := router.Group("/daily-tasks")
	{
		daily.GET("", h.List)
		daily.POST("/generate", h.Generate)
		daily.GET("/:id", h.Get)
		daily.POST("/:id/complete", h.Complete)
		daily.POST("/:id/log", h.LogValue)
		daily.POST("/:id/reset", h.Reset)
		daily.POST("/:id/missed", h.MarkMissed)
		daily.POST("/:id/failed", h.MarkFailed)
		daily.PUT("/:id/notes", h.UpdateNotes)
	}
}

// List godoc
// @Summary      Daily tasks for a date
// @Description  Defaults to today in the user's timezone. Today's list is generated on first access.
// @Tags         daily-tasks
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  false  "YYYY-MM-DD"
// @Success      200   {array}   domain.DailyTask
// @Router       /daily-tasks [get]
func (h *DailyTaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	today := h.clock.TodayIn(middleware.GetLocation(c))
	date, ok := parseDateQuery(c, "date", today)
	if !ok {
		return
	}

	if date.Equal(today) && h.generator != nil {
		if _, err := h.generator.GenerateForDate(c.Request.Context(), userID, date); err != nil {
			log.Printf("[GENERATOR] On-demand generation for %s failed: %v", userID, err)
		}
	}

	list, err := h.svc.ListForDate(c.Request.Context(), userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Generate godoc
// @Summary      Generate the user's daily tasks for a date
// @Tags         daily-tasks
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  false  "YYYY-MM-DD, defaults to today"
// @Success      200   {object}  generateResponse
// @Router       /daily-tasks/generate [post]
func (h *DailyTaskHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	date, ok := parseDateQuery(c, "date", h.clock.TodayIn(middleware.GetLocation(c)))
	if !ok {
		return
	}

	res, err := h.generator.GenerateForDate(c.Request.Context(), userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{Date: res.Date, Created: res.Created, Skipped: res.Skipped})
}

func (h *DailyTaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	dt, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dt)
}

func (h *DailyTaskHandler) respond(c *gin.Context, dt *domain.DailyTask, err error) {
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dt)
}

// Complete godoc
// @Summary      Mark a daily task done
// @Tags         daily-tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true   "Daily task ID"
// @Param        body  body      completeRequest  false  "Reached value and known version"
// @Success      200   {object}  domain.DailyTask
// @Failure      409   {object}  errorResponse
// @Router       /daily-tasks/{id}/complete [post]
func (h *DailyTaskHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req completeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	dt, err := h.svc.Complete(c.Request.Context(), services.CompleteDailyTaskInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Value:   req.Value,
		Version: req.Version,
	})
	h.respond(c, dt, err)
}

func (h *DailyTaskHandler) LogValue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req logValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	dt, err := h.svc.LogValue(c.Request.Context(), services.LogValueInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Value:   *req.Value,
		Version: req.Version,
	})
	h.respond(c, dt, err)
}

func (h *DailyTaskHandler) transition(c *gin.Context, apply func(ctx context.Context, id, userID string, version int) (*domain.DailyTask, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req versionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	dt, err := apply(c.Request.Context(), c.Param("id"), userID, req.Version)
	h.respond(c, dt, err)
}

func (h *DailyTaskHandler) Reset(c *gin.Context) {
	h.transition(c, h.svc.Reset)
}

func (h *DailyTaskHandler) MarkMissed(c *gin.Context) {
	h.transition(c, h.svc.MarkMissed)
}

func (h *DailyTaskHandler) MarkFailed(c *gin.Context) {
	h.transition(c, h.svc.MarkFailed)
}

func (h *DailyTaskHandler) UpdateNotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	dt, err := h.svc.UpdateNotes(c.Request.Context(), services.UpdateNotesInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Notes:   req.Notes,
		Version: req.Version,
	})
	h.respond(c, dt, err)
}
