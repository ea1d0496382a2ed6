package main

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/app/beachd/internal/retention"
	"github.com/lk2023060901/beachd/pkg/config"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/lk2023060901/beachd/pkg/otel"
	"github.com/lk2023060901/beachd/pkg/prometheus"
	"github.com/lk2023060901/beachd/pkg/tcp"
	"github.com/lk2023060901/beachd/pkg/web"
)

// Config beachd 服务配置
type Config struct {
	Log logger.Config `mapstructure:"log"`

	// TCP 接入与会话队列
	Server ServerConfig `mapstructure:"server"`

	// 准入容量
	Admission AdmissionConfig `mapstructure:"admission"`

	// 营业季：排列数与起止日期
	Season catalog.Season `mapstructure:"season"`

	// 预订编号
	Reservation ReservationConfig `mapstructure:"reservation"`

	// 过期预订清理
	Retention retention.Config `mapstructure:"retention"`

	// 管理 HTTP
	Admin AdminConfig `mapstructure:"admin"`

	// 指标
	Metrics prometheus.Config `mapstructure:"metrics"`

	// 链路追踪
	Tracing otel.Config `mapstructure:"tracing"`
}

// ServerConfig TCP 接入配置加上每会话队列长度
type ServerConfig struct {
	tcp.ServerConfig `mapstructure:",squash"`
	QueueSize        int `mapstructure:"queue_size" validate:"gt=0"`
}

// AdmissionConfig 准入配置
type AdmissionConfig struct {
	Capacity int `mapstructure:"capacity" validate:"gt=0"`
}

// ReservationConfig 预订编号配置，多实例部署时 machine_id 需互不相同
type ReservationConfig struct {
	MachineID uint16 `mapstructure:"machine_id"`
}

// AdminConfig 管理 HTTP 配置
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// 进程资源采集间隔，0 表示关闭 /v1/process
	ProcessInterval time.Duration `mapstructure:"process_interval" validate:"gte=0"`
	web.Config      `mapstructure:",squash"`
}

// defaults 所有配置项的默认值，环境变量只能覆盖已知键
func defaults() map[string]any {
	return map[string]any{
		"log.level":          "info",
		"log.format":         "console",
		"log.enable_console": true,

		"server.addr":           "0.0.0.0:12345",
		"server.network":        "tcp",
		"server.multicore":      true,
		"server.num_event_loop": 0,
		"server.reuse_port":     false,
		"server.reuse_addr":     true,
		"server.max_line_size":  1024,
		"server.queue_size":     64,
		"server.idle_timeout":   "60s",
		"server.tick_interval":  "1s",
		"server.tcp_keep_alive": "30s",

		"admission.capacity": 10,

		"season.rows":  10,
		"season.cols":  10,
		"season.start": "01/06/2017",
		"season.end":   "30/09/2017",

		"reservation.machine_id": 1,

		"retention.enabled":   false,
		"retention.schedule":  "@daily",
		"retention.keep_days": 30,

		"admin.enabled":       true,
		"admin.addr":          "127.0.0.1:8080",
		"admin.mode":          "release",
		"admin.read_timeout":  "15s",
		"admin.write_timeout": "15s",
		"admin.rate_limit":    0,
		"admin.burst":         0,
		"admin.cors_origins":  []string{},

		"admin.process_interval": "5s",

		"metrics.namespace":                "beachd",
		"metrics.enable_go_collector":      true,
		"metrics.enable_process_collector": true,

		"tracing.enabled":                     false,
		"tracing.service_name":                "beachd",
		"tracing.endpoint":                    "localhost:4318",
		"tracing.exporter_type":               "stdout",
		"tracing.sampler.type":                "parent",
		"tracing.sampler.ratio":               1.0,
		"tracing.batch_export.batch_size":     512,
		"tracing.batch_export.export_timeout": "30s",
		"tracing.batch_export.max_queue_size": 2048,
		"tracing.batch_export.batch_timeout":  "5s",
		"tracing.shutdown_timeout":            "5s",
		"tracing.insecure":                    true,
	}
}

// configOptions 加载配置时使用的 Manager 选项
func configOptions() []config.Option {
	return []config.Option{
		config.WithDefaults(defaults()),
		config.WithDecodeHooks(catalog.StringToDateHookFunc()),
	}
}

// Validate 结构校验加上各组件自身的校验
func (c *Config) Validate() error {
	if err := config.NewValidator().Validate(c); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return errors.Wrap(err, "log")
	}
	if err := c.Server.Validate(); err != nil {
		return errors.Wrap(err, "server")
	}
	if err := c.Season.Validate(); err != nil {
		return errors.Wrap(err, "season")
	}
	if c.Admin.Enabled {
		if err := c.Admin.Config.Validate(); err != nil {
			return errors.Wrap(err, "admin")
		}
	}
	if err := c.Metrics.Validate(); err != nil {
		return errors.Wrap(err, "metrics")
	}
	if err := c.Tracing.Validate(); err != nil {
		return errors.Wrap(err, "tracing")
	}
	if c.Server.IdleTimeout > 0 && c.Server.TickInterval > c.Server.IdleTimeout {
		c.Server.TickInterval = c.Server.IdleTimeout
	}
	return nil
}

// reloadKey 热更新时唯一重新应用的配置项
const reloadKey = "log.level"
