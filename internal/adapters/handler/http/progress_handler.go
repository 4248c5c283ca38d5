package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type ProgressHandler struct {
	svc *services.ProgressService
}

func NewProgressHandler(svc *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

func (h *ProgressHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/challenges/:id/progress", h.Get)
	router.POST("/challenges/:id/progress/recalculate", h.Recalculate)
}

// Get godoc
// @Summary      Progress report of a challenge as of today
// @Tags         progress
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Challenge ID"
// @Success      200  {object}  domain.ProgressReport
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /challenges/{id}/progress [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	report, err := h.svc.GetReport(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Recalculate persists the current progress and settles the challenge if
// its end date has passed.
func (h *ProgressHandler) Recalculate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	report, err := h.svc.RecalculateNow(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
