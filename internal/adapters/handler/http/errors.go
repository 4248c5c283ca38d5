package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

type errorResponse struct {
	Error      string             `json:"error"`
	Message    string             `json:"message,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

// handleError maps domain errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var nf *domain.NotFoundError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Violations: verr.Violations})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, errorResponse{Error: nf.Entity + " not found"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{
			Error:   "version conflict",
			Message: "Data has been modified elsewhere. Please sync.",
		})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: "invalid transition", Message: err.Error()})
	case errors.Is(err, domain.ErrChallengeClosed):
		c.JSON(http.StatusConflict, errorResponse{Error: "challenge closed", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, errorResponse{Error: "email already exists"})
	case errors.Is(err, domain.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid email format"})
	case errors.Is(err, domain.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "password too short"})
	case errors.Is(err, domain.ErrInvalidTimezone):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid timezone"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// currentUser reads the authenticated user id, answering 500 when the
// auth middleware did not run.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "user context missing"})
		return "", false
	}
	return userID, true
}

// parseDateQuery reads a YYYY-MM-DD query parameter, falling back to def.
func parseDateQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		badRequest(c, "invalid "+name+" format, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func parseSince(c *gin.Context) (time.Time, bool) {
	raw := c.Query("last_sync")
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, "invalid last_sync format, use RFC3339")
		return time.Time{}, false
	}
	return t, true
}
