package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/velora-shop/internal/cache"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitRule 基于 Redis 的固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string
}

// KeyFunc 从请求中提取限流键，返回空串表示跳过限流
type KeyFunc func(c *gin.Context) string

// 固定窗口计数：首次 INCR 后设置过期时间，超限时返回剩余秒数
var rateLimitScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  local ttl = redis.call('TTL', KEYS[1])
  if ttl < 0 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
  end
  return {1, ttl}
end
return {0, 0}
`)

// RateLimitMiddleware 按规则限流，Redis 不可用时放行
func RateLimitMiddleware(rule RateLimitRule, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Enabled() || rule.MaxRequests <= 0 || rule.WindowSeconds <= 0 {
			c.Next()
			return
		}
		key := ""
		if keyFn != nil {
			key = keyFn(c)
		}
		if key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("ratelimit:%s:%s", rule.Prefix, key)
		result, err := rateLimitScript.Run(c.Request.Context(), cache.Client(),
			[]string{redisKey}, rule.WindowSeconds, rule.MaxRequests).Result()
		if err != nil {
			logger.Warnw("rate_limit_script_failed", "key", redisKey, "error", err)
			c.Next()
			return
		}

		values, ok := result.([]interface{})
		if !ok || len(values) < 2 {
			c.Next()
			return
		}
		limited := toInt64(values[0])
		if limited != 1 {
			c.Next()
			return
		}

		retryAfter := toInt64(values[1])
		msg := rule.Message
		if msg == "" {
			msg = "too many requests, please try again later"
		}
		if retryAfter > 0 {
			msg = fmt.Sprintf("%s (retry in %ds)", msg, retryAfter)
		}
		response.Error(c, response.CodeTooManyRequests, msg)
		c.Abort()
	}
}

// KeyByIP 以客户端 IP 为限流键
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 以客户端 IP + JSON 请求体字段为限流键。
// 读取后回填请求体，保证后续 handler 仍可绑定。
func KeyByIPAndJSONField(field string) KeyFunc {
	return func(c *gin.Context) string {
		ip := c.ClientIP()
		if c.Request.Body == nil {
			return ip
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return ip
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			return ip
		}
		value, ok := payload[field].(string)
		if !ok {
			return ip
		}
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			return ip
		}
		return fmt.Sprintf("%s:%s", ip, value)
	}
}

func toInt64(v interface{}) int64 {
	switch value := v.(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case string:
		var parsed int64
		if _, err := fmt.Sscanf(value, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}
