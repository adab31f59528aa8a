// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sitter

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for imports.
var (
	tracer = otel.Tracer("facet.sitter")
	meter  = otel.Meter("facet.sitter")
)

var (
	importLatency metric.Float64Histogram
	importTotal   metric.Int64Counter
	errorRegions  metric.Int64Counter
	nodesImported metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		importLatency, err = meter.Float64Histogram(
			"facet_import_duration_seconds",
			metric.WithDescription("Duration of source imports"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		importTotal, err = meter.Int64Counter(
			"facet_import_total",
			metric.WithDescription("Total number of imports"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		errorRegions, err = meter.Int64Counter(
			"facet_import_error_regions_total",
			metric.WithDescription("Unparsable regions carried as error nodes"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesImported, err = meter.Int64Histogram(
			"facet_import_nodes",
			metric.WithDescription("Number of persistent nodes per imported file"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordImportMetrics records one import. nodes and regions are only
// recorded for successful imports.
func recordImportMetrics(ctx context.Context, duration time.Duration, nodes, regions int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	importLatency.Record(ctx, duration.Seconds(), attrs)
	importTotal.Add(ctx, 1, attrs)

	if success {
		nodesImported.Record(ctx, int64(nodes))
		if regions > 0 {
			errorRegions.Add(ctx, int64(regions))
		}
	}
}

// startImportSpan creates a span for an import. The caller must end it.
func startImportSpan(ctx context.Context, path string, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Importer.Import",
		trace.WithAttributes(
			attribute.String("facet.file", path),
			attribute.Int("facet.content_size", size),
		),
	)
}

func setImportSpanResult(span trace.Span, nodes, regions int) {
	span.SetAttributes(
		attribute.Int("facet.node_count", nodes),
		attribute.Int("facet.error_regions", regions),
	)
}
