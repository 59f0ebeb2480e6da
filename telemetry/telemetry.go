//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package telemetry wires OpenTelemetry tracing and metrics for the flow
// engine. Start installs OTLP gRPC exporters; without Start the package
// falls back to the global no-op providers, so instrumented code paths
// cost nothing when telemetry is off.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentName = "github.com/flowkit-ai/flowkit"

	defaultEndpoint    = "localhost:4317"
	defaultServiceName = "flowkit"

	envEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Tracer and Meter are the instrumentation handles used across the
// engine. They point at the global providers until Start replaces them.
var (
	Tracer trace.Tracer = otel.Tracer(instrumentName)
	Meter  metric.Meter = otel.Meter(instrumentName)

	executionCounter metric.Int64Counter
	nodeErrorCounter metric.Int64Counter
)

func init() {
	rebuildInstruments()
}

func rebuildInstruments() {
	executionCounter, _ = Meter.Int64Counter(
		"flowkit.executions",
		metric.WithDescription("Completed flow executions by terminal status"),
		metric.WithUnit("1"),
	)
	nodeErrorCounter, _ = Meter.Int64Counter(
		"flowkit.node.errors",
		metric.WithDescription("Node dispatches that ended in an error"),
		metric.WithUnit("1"),
	)
}

type options struct {
	endpoint    string
	serviceName string
}

// Option configures Start.
type Option func(*options)

// WithEndpoint sets the OTLP gRPC collector endpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithServiceName sets the reported service name.
func WithServiceName(name string) Option {
	return func(o *options) { o.serviceName = name }
}

// Start installs OTLP trace and metric exporters and returns a cleanup
// function that flushes and shuts both providers down.
func Start(ctx context.Context, opts ...Option) (func() error, error) {
	opt := options{
		endpoint:    defaultEndpoint,
		serviceName: defaultServiceName,
	}
	if env := os.Getenv(envEndpoint); env != "" {
		opt.endpoint = env
	}
	for _, o := range opts {
		o(&opt)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(opt.serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(opt.endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	Tracer = tracerProvider.Tracer(instrumentName)

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(opt.endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)
	Meter = meterProvider.Meter(instrumentName)
	rebuildInstruments()

	clean := func() error {
		shutdownCtx := context.Background()
		traceErr := tracerProvider.Shutdown(shutdownCtx)
		metricErr := meterProvider.Shutdown(shutdownCtx)
		if traceErr != nil {
			return traceErr
		}
		return metricErr
	}
	return clean, nil
}

// RecordExecution counts one completed flow execution.
func RecordExecution(ctx context.Context, flowID, status string) {
	executionCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("flow.id", flowID),
			attribute.String("flow.status", status),
		),
	)
}

// RecordNodeError counts one failed node dispatch.
func RecordNodeError(ctx context.Context, flowID, nodeID string) {
	nodeErrorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("flow.id", flowID),
			attribute.String("node.id", nodeID),
		),
	)
}
