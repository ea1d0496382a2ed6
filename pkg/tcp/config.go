package tcp

import (
	"fmt"
	"time"
)

// ServerConfig 服务端配置
type ServerConfig struct {
	// 监听地址，如 "0.0.0.0:12345"
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr"`

	// 网络类型，tcp/tcp4/tcp6
	Network string `mapstructure:"network" json:"network" yaml:"network"`

	// 是否启用多核
	Multicore bool `mapstructure:"multicore" json:"multicore" yaml:"multicore"`

	// 事件循环数量，0 表示使用 CPU 核心数
	NumEventLoop int `mapstructure:"num_event_loop" json:"num_event_loop" yaml:"num_event_loop"`

	// 是否启用端口复用
	ReusePort bool `mapstructure:"reuse_port" json:"reuse_port" yaml:"reuse_port"`

	// 是否启用地址复用
	ReuseAddr bool `mapstructure:"reuse_addr" json:"reuse_addr" yaml:"reuse_addr"`

	// 单行最大字节数（不含换行符），超出即断开连接
	MaxLineSize int `mapstructure:"max_line_size" json:"max_line_size" yaml:"max_line_size"`

	// 空闲超时，0 表示不检测
	IdleTimeout time.Duration `mapstructure:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout"`

	// 定时检测间隔
	TickInterval time.Duration `mapstructure:"tick_interval" json:"tick_interval" yaml:"tick_interval"`

	// TCP KeepAlive 间隔
	TCPKeepAlive time.Duration `mapstructure:"tcp_keep_alive" json:"tcp_keep_alive" yaml:"tcp_keep_alive"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:         "0.0.0.0:12345",
		Network:      "tcp",
		Multicore:    true,
		NumEventLoop: 0,
		ReusePort:    false,
		ReuseAddr:    true,
		MaxLineSize:  1024,
		IdleTimeout:  60 * time.Second,
		TickInterval: time.Second,
		TCPKeepAlive: 30 * time.Second,
	}
}

// Validate 验证服务端配置并填充缺省值
func (c *ServerConfig) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	if c.Network == "" {
		c.Network = "tcp"
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = 1024
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("%w: idle_timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ClientConfig 客户端配置
type ClientConfig struct {
	// 服务端地址，如 "127.0.0.1:12345"
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr"`

	// 网络类型，tcp/tcp4/tcp6
	Network string `mapstructure:"network" json:"network" yaml:"network"`

	// 单行最大字节数
	MaxLineSize int `mapstructure:"max_line_size" json:"max_line_size" yaml:"max_line_size"`

	// 连接超时
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`

	// 读超时，0 表示不设置
	ReadTimeout time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`

	// TCP KeepAlive 间隔
	TCPKeepAlive time.Duration `mapstructure:"tcp_keep_alive" json:"tcp_keep_alive" yaml:"tcp_keep_alive"`
}

// DefaultClientConfig 返回默认客户端配置
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Addr:         "127.0.0.1:12345",
		Network:      "tcp",
		MaxLineSize:  64 * 1024,
		DialTimeout:  10 * time.Second,
		TCPKeepAlive: 30 * time.Second,
	}
}

// Validate 验证客户端配置
func (c *ClientConfig) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	if c.Network == "" {
		c.Network = "tcp"
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = 64 * 1024
	}
	return nil
}
