// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the OpenTelemetry providers used by svgid.
//
// The rewrite and jsx packages record through otel.Meter and otel.Tracer;
// until Init runs those are no-ops. Metrics are exported to Prometheus (the
// watch package's promauto counters share the same registry) or printed to
// a writer, and spans can be printed for debugging.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrNilContext is returned when Init is given a nil context.
	ErrNilContext = errors.New("context must not be nil")

	// ErrUnknownExporter is returned for an unsupported exporter name.
	ErrUnknownExporter = errors.New("unknown exporter")
)

// Config controls telemetry.
type Config struct {
	// ServiceName identifies this process in metrics and traces.
	ServiceName string

	// ServiceVersion is the build version.
	ServiceVersion string

	// MetricExporter is "prometheus", "stdout" or "none".
	MetricExporter string

	// TraceExporter is "stdout" or "none".
	TraceExporter string

	// MetricsAddr serves /metrics when non-empty and MetricExporter is
	// "prometheus", e.g. ":9464".
	MetricsAddr string

	// Registry receives Prometheus metrics. Nil uses the default registry,
	// which also holds promauto metrics.
	Registry *prometheus.Registry

	// Writer receives stdout exporter output. Nil uses os.Stderr.
	Writer io.Writer

	Logger *slog.Logger
}

// DefaultConfig returns metrics via Prometheus with no HTTP endpoint and no
// tracing.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "svgid",
		ServiceVersion: "dev",
		MetricExporter: "prometheus",
		TraceExporter:  "none",
	}
}

// Telemetry holds the installed providers.
type Telemetry struct {
	handler  http.Handler
	server   *http.Server
	addr     net.Addr
	shutdown []func(context.Context) error
}

// Init installs providers according to cfg.
//
// Description:
//
//	Sets the global MeterProvider and TracerProvider. When MetricsAddr is
//	set a /metrics server is started in the background.
//
// Outputs:
//
//	*Telemetry - Call Shutdown on exit to flush exporters and stop the server.
//	error      - Non-nil if an exporter cannot be created or the address
//	             cannot be bound.
//
// Thread Safety: Call once at startup.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	t := &Telemetry{}

	if cfg.TraceExporter != "" && cfg.TraceExporter != "none" {
		tp, err := initTracer(cfg, res)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		otel.SetTracerProvider(tp)
		t.shutdown = append(t.shutdown, tp.Shutdown)
	}

	if cfg.MetricExporter != "" && cfg.MetricExporter != "none" {
		mp, handler, err := initMeter(cfg, res)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		otel.SetMeterProvider(mp)
		t.shutdown = append(t.shutdown, mp.Shutdown)
		t.handler = handler
	}

	if cfg.MetricsAddr != "" && t.handler != nil {
		if err := t.serve(cfg.MetricsAddr, cfg.Logger); err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
	}
	return t, nil
}

func initTracer(cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		return trace.NewTracerProvider(
			trace.WithBatcher(exporter),
			trace.WithResource(res),
			trace.WithSampler(trace.AlwaysSample()),
		), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}
}

func initMeter(cfg Config, res *resource.Resource) (*metric.MeterProvider, http.Handler, error) {
	switch cfg.MetricExporter {
	case "prometheus":
		var opts []promexporter.Option
		handler := promhttp.Handler()
		if cfg.Registry != nil {
			opts = append(opts, promexporter.WithRegisterer(cfg.Registry))
			handler = promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})
		}
		exporter, err := promexporter.New(opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(exporter),
		), handler, nil

	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exporter)),
		), nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.MetricExporter)
	}
}

func (t *Telemetry) serve(addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", t.handler)
	t.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	t.addr = ln.Addr()

	go func() {
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", t.addr.String()))
	return nil
}

// MetricsHandler returns the /metrics handler, or nil when Prometheus is
// not the metric exporter.
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.handler
}

// Addr returns the metrics server address, or nil when none is running.
func (t *Telemetry) Addr() net.Addr {
	return t.addr
}

// Shutdown stops the metrics server and flushes every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.server != nil {
		if err := t.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
