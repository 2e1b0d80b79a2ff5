package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// rateLimitScript sliding window (sorted set of request timestamps)
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('PEXPIRE', key, window + 1000)
    return {1, limit - count - 1}
end
return {0, 0}
`)

// RateLimit limits requests per minute, keyed by the authenticated user when
// present and by client IP otherwise. Without Redis, or on a Redis error, the
// request is let through.
func RateLimit(client *redis.Client, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || perMinute <= 0 {
			c.Next()
			return
		}

		key := "journal:ratelimit:ip:" + c.ClientIP()
		if id := GetUserID(c); id != 0 {
			key = "journal:ratelimit:user:" + strconv.FormatUint(id, 10)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
		defer cancel()
		result, err := rateLimitScript.Run(ctx, client, []string{key},
			perMinute, rateLimitWindow.Milliseconds(), time.Now().UnixMilli(),
		).Int64Slice()
		if err != nil || len(result) != 2 {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result[1]))

		if result[0] != 1 {
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"code": "RATE_LIMITED", "message": "Too many requests"},
			})
			return
		}
		c.Next()
	}
}
