package otel

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createExporter 根据配置创建导出器；noop 返回 nil
func createExporter(ctx context.Context, cfg *Config, stdout io.Writer) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterTypeOTLPHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return wrapExporter(otlptrace.New(ctx, otlptracehttp.NewClient(opts...)))
	case ExporterTypeOTLPGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return wrapExporter(otlptrace.New(ctx, otlptracegrpc.NewClient(opts...)))
	case ExporterTypeStdout, "":
		if stdout == nil {
			stdout = os.Stdout
		}
		return wrapExporter(stdouttrace.New(stdouttrace.WithWriter(stdout)))
	case ExporterTypeNoop:
		return nil, nil
	default:
		return nil, ErrUnsupportedExporter
	}
}

func wrapExporter[E sdktrace.SpanExporter](exp E, err error) (sdktrace.SpanExporter, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExporterFailed, err)
	}
	return exp, nil
}
