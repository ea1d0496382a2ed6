package otel

import "time"

// Config TracerProvider 配置
type Config struct {
	// Enabled 是否启用追踪
	Enabled bool `mapstructure:"enabled"`

	// ServiceName 服务名称（必填）
	ServiceName string `mapstructure:"service_name"`

	// Endpoint 导出器端点
	// OTLP HTTP: localhost:4318
	// OTLP gRPC: localhost:4317
	Endpoint string `mapstructure:"endpoint"`

	// ExporterType 导出器类型: "otlp-http", "otlp-grpc", "stdout", "noop"
	ExporterType ExporterType `mapstructure:"exporter_type" validate:"omitempty,oneof=otlp-http otlp-grpc stdout noop"`

	Sampler SamplerConfig `mapstructure:"sampler"`

	BatchExport BatchExportConfig `mapstructure:"batch_export"`

	// Attributes 附加的资源属性
	Attributes map[string]string `mapstructure:"attributes"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Insecure 不使用 TLS
	Insecure bool `mapstructure:"insecure"`
}

// ExporterType 导出器类型
type ExporterType string

const (
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"
	ExporterTypeOTLPGRPC ExporterType = "otlp-grpc"
	// ExporterTypeStdout 标准输出导出器，无需后端
	ExporterTypeStdout ExporterType = "stdout"
	// ExporterTypeNoop 不导出
	ExporterTypeNoop ExporterType = "noop"
)

// SamplerConfig 采样配置
type SamplerConfig struct {
	// Type 采样类型: "always", "never", "ratio", "parent"
	Type SamplerType `mapstructure:"type" validate:"omitempty,oneof=always never ratio parent"`

	// Ratio 采样比率（0.0-1.0），仅当 Type 为 "ratio" 时有效
	Ratio float64 `mapstructure:"ratio"`
}

// SamplerType 采样类型
type SamplerType string

const (
	SamplerTypeAlways SamplerType = "always"
	SamplerTypeNever  SamplerType = "never"
	SamplerTypeRatio  SamplerType = "ratio"
	// SamplerTypeParent 跟随父 Span 的采样决策，无父 Span 时采样
	SamplerTypeParent SamplerType = "parent"
)

// BatchExportConfig 批量导出配置
type BatchExportConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	ExportTimeout time.Duration `mapstructure:"export_timeout"`
	MaxQueueSize  int           `mapstructure:"max_queue_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
}

// DefaultConfig 返回默认配置：关闭，开启后输出到标准输出
func DefaultConfig() *Config {
	return &Config{
		Enabled:      false,
		ServiceName:  "beachd",
		Endpoint:     "localhost:4318",
		ExporterType: ExporterTypeStdout,
		Sampler: SamplerConfig{
			Type:  SamplerTypeParent,
			Ratio: 1.0,
		},
		BatchExport: BatchExportConfig{
			BatchSize:     512,
			ExportTimeout: 30 * time.Second,
			MaxQueueSize:  2048,
			BatchTimeout:  5 * time.Second,
		},
		Attributes:      make(map[string]string),
		ShutdownTimeout: 5 * time.Second,
		Insecure:        true,
	}
}

// Validate 验证配置并填充缺省值
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrInvalidServiceName
	}
	if c.Sampler.Type == SamplerTypeRatio && (c.Sampler.Ratio < 0 || c.Sampler.Ratio > 1) {
		return ErrInvalidSamplerRatio
	}
	switch c.ExporterType {
	case "", ExporterTypeOTLPHTTP, ExporterTypeOTLPGRPC, ExporterTypeStdout, ExporterTypeNoop:
	default:
		return ErrUnsupportedExporter
	}

	def := DefaultConfig()
	if c.BatchExport.BatchSize <= 0 {
		c.BatchExport.BatchSize = def.BatchExport.BatchSize
	}
	if c.BatchExport.MaxQueueSize <= 0 {
		c.BatchExport.MaxQueueSize = def.BatchExport.MaxQueueSize
	}
	if c.BatchExport.ExportTimeout <= 0 {
		c.BatchExport.ExportTimeout = def.BatchExport.ExportTimeout
	}
	if c.BatchExport.BatchTimeout <= 0 {
		c.BatchExport.BatchTimeout = def.BatchExport.BatchTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return nil
}
