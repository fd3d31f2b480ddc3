// Package monitor implements the batch drift-monitoring cycle: fetch the
// current production window, compare it against the reference snapshot,
// persist the verdict as metric rows, and dispatch a threshold-based alert.
//
// A cycle is single-threaded and runs to completion. The external scheduler
// owns the cadence and is assumed not to overlap invocations; no
// cross-invocation locking is taken.
package monitor

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vigilml/vigil/internal/domain/monitoring"
	"github.com/vigilml/vigil/internal/platform/logger"
	"github.com/vigilml/vigil/internal/platform/slack"
	"github.com/vigilml/vigil/internal/reference"
	"github.com/vigilml/vigil/internal/repos"
)

type Deps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Reference   reference.Loader
	Predictions repos.PredictionLogRepo
	Metrics     repos.MonitoringMetricRepo
	Notifier    slack.Client

	// Now overrides the wall clock in tests.
	Now func() time.Time
}

type Input struct {
	ModelVersion   string
	LookbackHours  int
	Significance   float64
	DriftShare     float64
	DriftThreshold int
	Features       []monitoring.FeatureSpec
}

// Skip reasons. An empty window and an unreachable store both end the cycle
// with no side effects, but they are logged and reported distinctly.
const (
	SkipEmptyWindow = "empty_window"
	SkipStoreError  = "store_error"
)

type Output struct {
	WindowStart time.Time
	WindowEnd   time.Time

	Skipped    bool
	SkipReason string

	Summary        *monitoring.DatasetDriftSummary
	MetricsWritten int
	AlertSent      bool
}

// Run executes one idempotent monitoring cycle. Re-running with the same
// window appends new metric rows; nothing is ever updated in place. The only
// error Run surfaces is an unreadable reference snapshot - every other
// failure degrades and is reported through the Output and the log.
func Run(ctx context.Context, deps Deps, input Input) (Output, error) {
	out := Output{}
	if deps.DB == nil || deps.Log == nil || deps.Reference == nil || deps.Predictions == nil || deps.Metrics == nil {
		return out, fmt.Errorf("monitor: missing deps")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if input.ModelVersion == "" {
		input.ModelVersion = "v1.0"
	}
	if input.LookbackHours <= 0 {
		input.LookbackHours = 24
	}
	if len(input.Features) == 0 {
		input.Features = monitoring.DefaultFeatures()
	}

	log := deps.Log.With("job", "drift_monitor", "model_version", input.ModelVersion)
	log.Info("Starting batch monitoring cycle", "lookback_hours", input.LookbackHours)

	refRecords, err := deps.Reference.Load()
	if err != nil {
		log.Error("Reference data load failed, aborting cycle", "error", err)
		return out, fmt.Errorf("monitor: load reference: %w", err)
	}
	log.Info("Reference data loaded", "rows", len(refRecords))

	fetcher := NewFetcher(deps.Predictions, time.Duration(input.LookbackHours)*time.Hour, log, deps.Now)
	window := fetcher.Fetch(ctx)
	out.WindowStart = window.Start
	out.WindowEnd = window.End

	if len(window.Records) == 0 {
		out.Skipped = true
		if window.StoreFailed {
			out.SkipReason = SkipStoreError
			log.Warn("Skipping cycle: store unreachable", "skip_reason", out.SkipReason)
		} else {
			out.SkipReason = SkipEmptyWindow
			log.Info("Skipping cycle: no new data in window", "skip_reason", out.SkipReason)
		}
		return out, nil
	}

	detector := NewDetector(input.Features, input.Significance, input.DriftShare)
	summary := detector.Compare(refRecords, window.Records)
	out.Summary = &summary
	log.Info("Drift summary",
		"dataset_drift", summary.DatasetDrift,
		"drifted_features", summary.NumDriftedFeatures,
		"tested_features", summary.NumTestedFeatures,
		"rows", summary.RowCount,
	)

	recorder := NewRecorder(deps.DB, deps.Metrics, input.ModelVersion, log, deps.Now)
	rows, err := recorder.Persist(ctx, summary, window.Start, window.End)
	if err != nil {
		// Metric durability and alerting are decoupled: a storage hiccup
		// must not suppress an alert computed from the in-memory summary.
		log.Error("Failed to persist metrics, continuing to alerting", "error", err)
	} else {
		out.MetricsWritten = len(rows)
	}

	alerter := NewAlerter(deps.Notifier, input.DriftThreshold, log)
	out.AlertSent = alerter.Dispatch(ctx, summary, window.Start, window.End)

	log.Info("Monitoring cycle finished",
		"metrics_written", out.MetricsWritten,
		"alert_sent", out.AlertSent,
	)
	return out, nil
}
