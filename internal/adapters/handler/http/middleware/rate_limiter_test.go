package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func limitedRouter(rdb redis.Cmdable, limit int) *gin.Engine {
	router := gin.New()
	router.Use(RateLimiterMiddleware(rdb, limit, time.Hour))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "passed")
	})
	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip + ":1234"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Allow Requests under limit", func(t *testing.T) {
		_, rdb := setupTestRedis(t)
		limit := 5
		router := limitedRouter(rdb, limit)

		for i := 1; i <= limit; i++ {
			w := hit(router, "192.168.1.100")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, fmt.Sprintf("%d", limit), w.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, fmt.Sprintf("%d", limit-i), w.Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("Block Requests over limit", func(t *testing.T) {
		_, rdb := setupTestRedis(t)
		router := limitedRouter(rdb, 2)

		assert.Equal(t, http.StatusOK, hit(router, "192.168.1.101").Code, "Request 1 should pass")
		assert.Equal(t, http.StatusOK, hit(router, "192.168.1.101").Code, "Request 2 should pass")

		w3 := hit(router, "192.168.1.101")
		assert.Equal(t, http.StatusTooManyRequests, w3.Code, "Request 3 should be blocked")
		assert.Contains(t, w3.Body.String(), "Too many requests")

		assert.Equal(t, http.StatusOK, hit(router, "192.168.1.102").Code, "Other clients are not affected")
	})

	t.Run("Counters expire with the window", func(t *testing.T) {
		mr, rdb := setupTestRedis(t)
		router := limitedRouter(rdb, 1)
		hit(router, "10.0.0.1")

		keys := mr.Keys()
		require.Len(t, keys, 1)
		ttl := mr.TTL(keys[0])
		assert.True(t, ttl > 0 && ttl <= time.Hour, "unexpected ttl %s", ttl)
	})

	t.Run("Fail Open (Redis Down)", func(t *testing.T) {
		mr, rdb := setupTestRedis(t)
		mr.Close()

		w := hit(limitedRouter(rdb, 5), "10.0.0.2")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "passed", w.Body.String())
	})
}
