// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("svgid.rewrite")

var (
	declarationsTotal metric.Int64Counter
	referencesTotal   metric.Int64Counter
	scopesTotal       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		declarationsTotal, err = meter.Int64Counter(
			"svgid_declarations_total",
			metric.WithDescription("Identifier declarations replaced by tokens"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		referencesTotal, err = meter.Int64Counter(
			"svgid_references_total",
			metric.WithDescription("Identifier references rewritten, by form"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		scopesTotal, err = meter.Int64Counter(
			"svgid_scopes_total",
			metric.WithDescription("Component scopes processed, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordScopeMetrics(ctx context.Context, s *Scope) {
	if err := initMetrics(); err != nil {
		return
	}

	outcome := "unchanged"
	if !s.Empty() {
		outcome = "rewritten"
	}
	scopesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	if n := len(s.declarations); n > 0 {
		declarationsTotal.Add(ctx, int64(n))
	}

	byForm := make(map[Form]int64, 3)
	for _, r := range s.references {
		byForm[r.Form]++
	}
	for form, n := range byForm {
		referencesTotal.Add(ctx, n, metric.WithAttributes(attribute.String("form", form.String())))
	}
}
