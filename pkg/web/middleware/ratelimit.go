package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/beachd/pkg/logger"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// RequestsPerSecond 每秒请求数，<=0 表示不限流
	RequestsPerSecond float64
	// Burst 突发容量
	Burst int
	// PerIP 是否按客户端 IP 分别限流
	PerIP bool
	// MaxLimiters PerIP 时最多保留的限流器数量，超出后整体重置
	MaxLimiters int
	// SkipPaths 跳过的路径
	SkipPaths []string
}

// RateLimiter 限流器
type RateLimiter struct {
	cfg    RateLimitConfig
	global *rate.Limiter

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.RequestsPerSecond))
	}
	if cfg.MaxLimiters <= 0 {
		cfg.MaxLimiters = 1024
	}
	return &RateLimiter{
		cfg:      cfg,
		global:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow 检查是否允许请求，key 为空时使用全局限流器
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return rl.global.Allow()
	}
	return rl.getLimiter(key).Allow()
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[key]; ok {
		return l
	}
	if len(rl.limiters) >= rl.cfg.MaxLimiters {
		clear(rl.limiters)
	}
	l := rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	rl.limiters[key] = l
	return l
}

// RateLimit 限流中间件，超限返回 429
func RateLimit(limiter *RateLimiter, l logger.Logger) gin.HandlerFunc {
	skipPaths := make(map[string]struct{}, len(limiter.cfg.SkipPaths))
	for _, path := range limiter.cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, skip := skipPaths[path]; skip {
			c.Next()
			return
		}

		var key string
		if limiter.cfg.PerIP {
			key = "ip:" + c.ClientIP()
		}
		if !limiter.Allow(key) {
			l.Warn("rate limit exceeded", "key", key, "path", path)
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "too many requests",
				"data":    nil,
			})
			return
		}
		c.Next()
	}
}
