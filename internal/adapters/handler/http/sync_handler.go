package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type SyncHandler struct {
	challenges *services.ChallengeService
	daily      *services.DailyTaskService
}

func NewSyncHandler(challenges *services.ChallengeService, daily *services.DailyTaskService) *SyncHandler {
	return &SyncHandler{challenges: challenges, daily: daily}
}

type syncResponse struct {
	Challenges []*domain.Challenge `json:"challenges"`
	DailyTasks []*domain.DailyTask `json:"daily_tasks"`
	Timestamp  time.Time           `json:"timestamp"`
}

func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/sync", h.Sync)
}

// Sync godoc
// @Summary      Changes since the last sync
// @Description  Returns challenges and daily tasks touched after last_sync, deleted ones included.
// @Description  Pass the returned timestamp as last_sync next time.
// @Tags         sync
// @Produce      json
// @Security     BearerAuth
// @Param        last_sync  query     string  false  "RFC3339 timestamp"
// @Success      200        {object}  syncResponse
// @Router       /sync [get]
func (h *SyncHandler) Sync(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	since, ok := parseSince(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	ctx := c.Request.Context()

	challenges, err := h.challenges.GetDelta(ctx, userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	dailyTasks, err := h.daily.GetDelta(ctx, userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, syncResponse{
		Challenges: challenges,
		DailyTasks: dailyTasks,
		Timestamp:  now,
	})
}
