package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"launchpulse-backend/shared/config"
)

// RateLimiter is a fixed-window per-client limiter backed by Redis, so the
// window survives restarts and is shared between replicas.
type RateLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

// NewRateLimiter connects to Redis using the service configuration
func NewRateLimiter(cfg *config.Config) (*RateLimiter, error) {
	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RateLimiter{
		client:      client,
		maxRequests: cfg.GetRateLimitMaxRequests(),
		window:      time.Duration(cfg.GetRateLimitTimeWindowSeconds()) * time.Second,
	}, nil
}

// NewRateLimiterWithClient wires an existing Redis client (tests)
func NewRateLimiterWithClient(client *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
	}
}

// allow counts one request for the key and reports whether it is within
// the window budget. Redis being unreachable does not block traffic.
func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("rate limiter unavailable: %v", err)
		return true
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
			log.Printf("rate limiter expire failed for %s: %v", key, err)
		}
	}
	return count <= int64(rl.maxRequests)
}

// Middleware enforces the limit per client IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		if !rl.allow(c.Request.Context(), key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded, try again later",
				"code":  "RATE_LIMITED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Close releases the Redis connection
func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}
