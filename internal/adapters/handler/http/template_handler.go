package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type TemplateHandler struct {
	svc *services.ChallengeService
}

func NewTemplateHandler(svc *services.ChallengeService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type fromTemplateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
}

// RegisterPublicRoutes exposes the catalogue without authentication.
func (h *TemplateHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.GET("/templates", h.List)
}

func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/templates/:type/challenges", h.Instantiate)
}

// List godoc
// @Summary      Predefined challenge templates
// @Tags         templates
// @Produce      json
// @Success      200  {array}  templates.Template
// @Router       /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListTemplates())
}

// Instantiate godoc
// @Summary      Create a challenge from a template
// @Description  Copies the template's default tasks. Body fields override the template's values.
// @Tags         templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string               true   "Challenge type"
// @Param        body  body      fromTemplateRequest  false  "Overrides"
// @Success      201   {object}  domain.Challenge
// @Failure      404   {object}  errorResponse
// @Router       /templates/{type}/challenges [post]
func (h *TemplateHandler) Instantiate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req fromTemplateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	challenge, err := h.svc.CreateFromTemplate(c.Request.Context(), services.CreateFromTemplateInput{
		UserID:       userID,
		Type:         c.Param("type"),
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, challenge)
}
