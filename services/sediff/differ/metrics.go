// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package differ

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for diff operations.
var meter = otel.Meter("sediff.differ")

// Metrics for diff operations.
var (
	diffLatency  metric.Float64Histogram
	diffTotal    metric.Int64Counter
	changesFound metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		diffLatency, err = meter.Float64Histogram(
			"sediff_diff_duration_seconds",
			metric.WithDescription("Duration of file diff operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diffTotal, err = meter.Int64Counter(
			"sediff_diff_total",
			metric.WithDescription("Total number of file diff operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		changesFound, err = meter.Int64Histogram(
			"sediff_changes_found",
			metric.WithDescription("Number of reported changes per file diff"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordDiffMetrics records metrics for one file diff.
func recordDiffMetrics(ctx context.Context, language string, duration time.Duration, changeCount int, success bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}

	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("success", success),
	)

	diffTotal.Add(ctx, 1, attrs)
	if success {
		diffLatency.Record(ctx, duration.Seconds(), attrs)
		changesFound.Record(ctx, int64(changeCount),
			metric.WithAttributes(attribute.String("language", language)),
		)
	}
}
