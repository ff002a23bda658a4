package middleware

import (
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

func newLimitedRouter(t *testing.T, maxRequests int, window time.Duration) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRateLimiterWithClient(client, maxRequests, window)
	t.Cleanup(func() { limiter.Close() })

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router, mr
}

func TestRateLimiterEnforcesWindowBudget(t *testing.T) {
	router, _ := newLimitedRouter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	router, mr := newLimitedRouter(t, 1, time.Minute)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	mr.FastForward(time.Minute + time.Second)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterFailsOpenWhenRedisDown(t *testing.T) {
	router, mr := newLimitedRouter(t, 1, time.Minute)
	mr.Close()

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
