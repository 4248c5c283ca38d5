package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type PhotoHandler struct {
	svc *services.PhotoService
}

func NewPhotoHandler(svc *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{svc: svc}
}

type logPhotoRequest struct {
	DailyTaskID *string `json:"daily_task_id"`
	StorageKey  string  `json:"storage_key" binding:"required"`
	Caption     string  `json:"caption"`
	TakenOn     string  `json:"taken_on"`
}

func (h *PhotoHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/challenges/:id/photos", h.Log)
	router.GET("/challenges/:id/photos", h.List)
	router.DELETE("/photos/:id", h.Delete)
}

// Log godoc
// @Summary      Record a progress photo
// @Description  Only metadata is stored; the image lives in object storage under storage_key.
// @Tags         photos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Challenge ID"
// @Param        body  body      logPhotoRequest  true  "Photo"
// @Success      201   {object}  domain.Photo
// @Router       /challenges/{id}/photos [post]
func (h *PhotoHandler) Log(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req logPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	input := services.LogPhotoInput{
		UserID:      userID,
		ChallengeID: c.Param("id"),
		DailyTaskID: req.DailyTaskID,
		StorageKey:  req.StorageKey,
		Caption:     req.Caption,
	}
	if req.TakenOn != "" {
		takenOn, err := domain.ParseDate(req.TakenOn)
		if err != nil {
			badRequest(c, "invalid taken_on format, expected YYYY-MM-DD")
			return
		}
		input.TakenOn = &takenOn
	}

	photo, err := h.svc.Log(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, photo)
}

func (h *PhotoHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	photos, err := h.svc.List(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, photos)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
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
