package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"

	ContextUserIDKey   = "userID"
	ContextLocationKey = "userLocation"
)

var (
	errMissingHeader = errors.New("authorization header required")
	errHeaderFormat  = errors.New("invalid authorization header format")
)

// AuthMiddleware accepts a bearer token of an existing user and stores the
// user's id and timezone on the context for the handlers.
func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader(authorizationHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		user, err := tokenService.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Printf("[AUTH] Rejected token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextLocationKey, user.Location())
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], authorizationType) {
		return "", errHeaderFormat
	}
	return fields[1], nil
}

func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserIDKey)
	return id, id != ""
}

// GetLocation returns the authenticated user's timezone, or nil when the
// request carries none.
func GetLocation(c *gin.Context) *time.Location {
	v, ok := c.Get(ContextLocationKey)
	if !ok {
		return nil
	}
	loc, _ := v.(*time.Location)
	return loc
}
