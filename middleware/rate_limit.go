package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// WindowCounter increments a counter that expires with its window
type WindowCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisWindowCounter keeps window counters in Redis
type RedisWindowCounter struct {
	client *redis.Client
}

// NewRedisWindowCounter creates a window counter backed by client
func NewRedisWindowCounter(client *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{client: client}
}

// Increment adds one to key and (re)arms its expiry in a single pipeline
func (r *RedisWindowCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incrCmd.Val(), nil
}

// NewRedisClient connects to Redis using a redis:// URL
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// KeyPrefix namespaces the counter keys
	KeyPrefix string
}

// RateLimiter is a fixed-window limiter keyed by the :id route parameter
type RateLimiter struct {
	counter WindowCounter
	config  RateLimitConfig
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(counter WindowCounter, config RateLimitConfig, logger *zap.SugaredLogger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Middleware returns a gin middleware enforcing the limit per user id
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		windowStart := rl.now().Truncate(rl.config.Window)
		resetTime := windowStart.Add(rl.config.Window)
		key := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, c.Param("id"), windowStart.Unix())

		count, err := rl.counter.Increment(c.Request.Context(), key, rl.config.Window)
		if err != nil {
			// Fail open: an unavailable limiter must not block predictions
			rl.logger.Warnw("Rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}

		remaining := rl.config.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if int(count) > rl.config.Limit {
			c.Header("Retry-After", strconv.Itoa(int(resetTime.Sub(rl.now()).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": fmt.Sprintf("Rate limit of %d requests per %v exceeded", rl.config.Limit, rl.config.Window),
				},
			})
			return
		}

		c.Next()
	}
}
