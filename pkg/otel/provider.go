package otel

import (
	"context"
	"io"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerProvider 追踪提供者，未启用时所有 Tracer 都是 noop
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

// Option 创建选项
type Option func(*options)

type options struct {
	exporter sdktrace.SpanExporter
	stdout   io.Writer
}

// WithExporter 使用指定导出器，忽略 ExporterType
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

// WithStdout stdout 导出器的输出目标，默认 os.Stdout
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// New 创建追踪提供者
func New(cfg *Config, opts ...Option) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return &TracerProvider{config: cfg}, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	exporter := o.exporter
	if exporter == nil {
		var err error
		if exporter, err = createExporter(context.Background(), cfg, o.stdout); err != nil {
			return nil, err
		}
		if exporter == nil {
			return &TracerProvider{config: cfg}, nil
		}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(cfg.BatchExport.BatchTimeout),
			sdktrace.WithExportTimeout(cfg.BatchExport.ExportTimeout),
			sdktrace.WithMaxExportBatchSize(cfg.BatchExport.BatchSize),
			sdktrace.WithMaxQueueSize(cfg.BatchExport.MaxQueueSize),
		),
		sdktrace.WithResource(createResource(cfg)),
		sdktrace.WithSampler(createSampler(cfg.Sampler)),
	)
	return &TracerProvider{config: cfg, provider: provider}, nil
}

func createResource(cfg *Config) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func createSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case SamplerTypeAlways:
		return sdktrace.AlwaysSample()
	case SamplerTypeNever:
		return sdktrace.NeverSample()
	case SamplerTypeRatio:
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Tracer 获取指定名称的 Tracer
func (p *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return p.Provider().Tracer(name, opts...)
}

// Provider 底层 TracerProvider，未启用时为 noop
func (p *TracerProvider) Provider() trace.TracerProvider {
	if p.provider == nil {
		return noop.NewTracerProvider()
	}
	return p.provider
}

// SetGlobal 把本提供者与 W3C 传播器设为 otel 全局默认
func (p *TracerProvider) SetGlobal() {
	otel.SetTracerProvider(p.Provider())
	otel.SetTextMapPropagator(Propagator())
}

// Propagator W3C Trace Context + Baggage
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// ForceFlush 导出所有已结束的 Span
func (p *TracerProvider) ForceFlush(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.ForceFlush(ctx)
}

// Shutdown 刷新并关闭导出器
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Close 以 ShutdownTimeout 为超时关闭
func (p *TracerProvider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.Shutdown(ctx)
}

// IsEnabled 是否真正在导出
func (p *TracerProvider) IsEnabled() bool {
	return p.provider != nil
}

// Config 获取配置
func (p *TracerProvider) Config() *Config {
	return p.config
}
