// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsx

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("svgid.jsx")
	meter  = otel.Meter("svgid.jsx")
)

var (
	transformLatency metric.Float64Histogram
	transformTotal   metric.Int64Counter
	identifiersTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		transformLatency, err = meter.Float64Histogram(
			"svgid_transform_duration_seconds",
			metric.WithDescription("Duration of file transforms"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		transformTotal, err = meter.Int64Counter(
			"svgid_transform_total",
			metric.WithDescription("Files transformed, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		identifiersTotal, err = meter.Int64Counter(
			"svgid_identifiers_total",
			metric.WithDescription("Identifiers made unique"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// outcome classifies a transform for metric attributes.
func outcome(res *Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case res != nil && res.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

func recordTransformMetrics(ctx context.Context, duration time.Duration, res *Result, err error) {
	if initErr := initMetrics(); initErr != nil {
		return // Silently skip if metrics init failed
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome(res, err)))
	transformLatency.Record(ctx, duration.Seconds(), attrs)
	transformTotal.Add(ctx, 1, attrs)

	if res != nil && err == nil {
		if n := res.Identifiers(); n > 0 {
			identifiersTotal.Add(ctx, int64(n))
		}
	}
}

// startTransformSpan creates a span for one file. The caller must end it
// through finishTransformSpan.
func startTransformSpan(ctx context.Context, filePath string, contentSize int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Transformer.Transform",
		trace.WithAttributes(
			attribute.String("svgid.file", filePath),
			attribute.Int("svgid.content_size", contentSize),
		),
	)
}

func finishTransformSpan(span trace.Span, res *Result, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if res != nil {
		span.SetAttributes(
			attribute.String("svgid.language", res.Language),
			attribute.Int("svgid.components", len(res.Components)),
			attribute.Int("svgid.identifiers", res.Identifiers()),
			attribute.Bool("svgid.changed", res.Changed),
		)
	}
}
