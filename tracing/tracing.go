// SPDX-License-Identifier: Apache-2.0
// Copyright 2025 Canonical Ltd.

package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	ServiceName     = "uesim"
	shutdownTimeout = 5 * time.Second
)

type TelemetryConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	Ratio          float64
}

// ConfigFromFactory maps the telemetry section of the configuration file. A
// missing section yields a disabled config.
func ConfigFromFactory(t *factory.Telemetry, version string) TelemetryConfig {
	cfg := TelemetryConfig{ServiceName: ServiceName, ServiceVersion: version, Ratio: 1.0}
	if t == nil {
		return cfg
	}
	cfg.Enabled = t.Enabled
	cfg.OTLPEndpoint = t.OtlpEndpoint
	if t.Ratio > 0 {
		cfg.Ratio = t.Ratio
	}
	return cfg
}

// InitTracer sets up a global TracerProvider based on the given configuration.
func InitTracer(ctx context.Context, cfg TelemetryConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.OTLPEndpoint == "" {
		return nil, fmt.Errorf("telemetry is enabled without an OTLP endpoint")
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Ratio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	logger.TracingLog.Infof("exporting traces to [%s], ratio %.2f", cfg.OTLPEndpoint, cfg.Ratio)

	return tp, nil
}

// Shutdown flushes pending spans. A nil provider is a no-op.
func Shutdown(tp *sdktrace.TracerProvider) {
	if tp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		logger.TracingLog.Errorf("tracer shutdown: %v", err)
	}
}
