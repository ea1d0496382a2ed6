package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Config Web 服务配置
type Config struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// 每秒请求数，0 表示不限流
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" validate:"gte=0"`
	// 按客户端 IP 分别限流
	RateLimitPerIP bool `mapstructure:"rate_limit_per_ip"`

	// 允许跨域的来源，空表示不启用 CORS
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:8080",
		Mode:         gin.ReleaseMode,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil || c.Addr == "" || c.RateLimit < 0 || c.Burst < 0 {
		return ErrInvalidConfig
	}
	switch c.Mode {
	case "":
		c.Mode = gin.ReleaseMode
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return ErrInvalidConfig
	}
	return nil
}
