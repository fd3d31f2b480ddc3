package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigilml/vigil/internal/domain/monitoring"
	"github.com/vigilml/vigil/internal/repos"
)

type staticLoader struct {
	records []monitoring.FeatureRecord
	err     error
}

func (l *staticLoader) Load() ([]monitoring.FeatureRecord, error) {
	return l.records, l.err
}

func openTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "vigil.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(models) > 0 {
		if err := gdb.AutoMigrate(models...); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return gdb
}

func seedPredictions(t *testing.T, gdb *gorm.DB, end time.Time, n int, f1Offset float64) {
	t.Helper()
	rows := make([]*monitoring.PredictionLog, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, &monitoring.PredictionLog{
			Feature1:       f1Offset + float64(i)*0.1,
			Feature2:       float64(i) * 0.1,
			Prediction:     i % 2,
			PredictionTime: end.Add(-time.Duration(i+1) * time.Minute),
			ModelVersion:   "v1.0",
		})
	}
	if err := gdb.Create(&rows).Error; err != nil {
		t.Fatalf("seed predictions: %v", err)
	}
}

func referenceRecords(n int) []monitoring.FeatureRecord {
	out := make([]monitoring.FeatureRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, monitoring.FeatureRecord{
			Features: map[string]float64{
				"feature_1": float64(i) * 0.1, // uniform over [0, 10)
				"feature_2": float64(i) * 0.1,
			},
		})
	}
	return out
}

func testDeps(t *testing.T, gdb *gorm.DB, refErr error, notifier *fakeNotifier, end time.Time) Deps {
	t.Helper()
	log := testLogger(t)
	return Deps{
		DB:          gdb,
		Log:         log,
		Reference:   &staticLoader{records: referenceRecords(100), err: refErr},
		Predictions: repos.NewPredictionLogRepo(gdb, log),
		Metrics:     repos.NewMonitoringMetricRepo(gdb, log),
		Notifier:    notifier,
		Now:         func() time.Time { return end },
	}
}

func metricRows(t *testing.T, gdb *gorm.DB) []*monitoring.MonitoringMetric {
	t.Helper()
	rows := []*monitoring.MonitoringMetric{}
	if err := gdb.Order("metric_name ASC").Find(&rows).Error; err != nil {
		t.Fatalf("list metrics: %v", err)
	}
	return rows
}

func TestRun_EmptyWindowSkipsWithNoSideEffects(t *testing.T) {
	gdb := openTestDB(t, &monitoring.PredictionLog{}, &monitoring.MonitoringMetric{})
	notifier := &fakeNotifier{enabled: true}
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	out, err := Run(context.Background(), testDeps(t, gdb, nil, notifier, end), Input{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Skipped || out.SkipReason != SkipEmptyWindow {
		t.Fatalf("expected empty-window skip, got %+v", out)
	}
	if rows := metricRows(t, gdb); len(rows) != 0 {
		t.Fatalf("expected no metric rows for an empty window, got %d", len(rows))
	}
	if len(notifier.posts) != 0 {
		t.Fatalf("expected no alert for an empty window")
	}
	if !out.WindowStart.Before(out.WindowEnd) {
		t.Fatalf("expected window bounds even on skip, got %+v", out)
	}
}

func TestRun_StoreErrorSkipsDistinctly(t *testing.T) {
	// prediction_logs is never migrated, so the window fetch fails.
	gdb := openTestDB(t, &monitoring.MonitoringMetric{})
	notifier := &fakeNotifier{enabled: true}
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	out, err := Run(context.Background(), testDeps(t, gdb, nil, notifier, end), Input{})
	if err != nil {
		t.Fatalf("Run: expected store failure absorbed, got %v", err)
	}
	if !out.Skipped || out.SkipReason != SkipStoreError {
		t.Fatalf("expected store-error skip, got %+v", out)
	}
	if rows := metricRows(t, gdb); len(rows) != 0 {
		t.Fatalf("expected no metric rows after store failure, got %d", len(rows))
	}
	if len(notifier.posts) != 0 {
		t.Fatalf("expected no alert after store failure")
	}
}

func TestRun_MissingReferenceAborts(t *testing.T) {
	gdb := openTestDB(t, &monitoring.PredictionLog{}, &monitoring.MonitoringMetric{})
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedPredictions(t, gdb, end, 10, 0)

	_, err := Run(context.Background(), testDeps(t, gdb, errors.New("no such file"), &fakeNotifier{}, end), Input{})
	if err == nil {
		t.Fatalf("expected fatal error for missing reference data")
	}
	if rows := metricRows(t, gdb); len(rows) != 0 {
		t.Fatalf("expected no metric rows after aborted cycle, got %d", len(rows))
	}
}

func TestRun_ShiftedFeatureEndToEnd(t *testing.T) {
	gdb := openTestDB(t, &monitoring.PredictionLog{}, &monitoring.MonitoringMetric{})
	notifier := &fakeNotifier{enabled: true}
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// feature_1 lands far outside the reference range; feature_2 matches it.
	seedPredictions(t, gdb, end, 100, 50)

	out, err := Run(context.Background(), testDeps(t, gdb, nil, notifier, end), Input{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Skipped {
		t.Fatalf("unexpected skip: %+v", out)
	}
	if out.Summary == nil || out.Summary.NumDriftedFeatures != 1 {
		t.Fatalf("expected exactly feature_1 drifted, got %+v", out.Summary)
	}
	// 1 of 2 tested features drifted: 0.5 does not exceed the 0.5 share.
	if out.Summary.DatasetDrift {
		t.Fatalf("expected dataset_drift=false at the aggregation boundary")
	}
	if out.MetricsWritten != 2 {
		t.Fatalf("expected 2 metric rows written, got %d", out.MetricsWritten)
	}
	if len(notifier.posts) != 1 {
		t.Fatalf("expected drift alert sent with threshold 0, got %d posts", len(notifier.posts))
	}

	rows := metricRows(t, gdb)
	if len(rows) != 2 {
		t.Fatalf("expected 2 persisted rows, got %d", len(rows))
	}
	summaryRow, countRow := rows[0], rows[1]
	if summaryRow.MetricName != monitoring.MetricDataDriftSummary || countRow.MetricName != monitoring.MetricPredictionCount {
		t.Fatalf("unexpected metric names: %q, %q", summaryRow.MetricName, countRow.MetricName)
	}
	if summaryRow.NumDriftedFeatures != 1 || summaryRow.DataDriftScore != 0.0 {
		t.Fatalf("unexpected summary row: %+v", summaryRow)
	}
	if len(summaryRow.ReportSummary) == 0 {
		t.Fatalf("expected structured report_summary on the summary row")
	}
	if countRow.MetricValue != 100 {
		t.Fatalf("expected prediction_count=100, got %v", countRow.MetricValue)
	}
	for _, row := range rows {
		if !row.BatchStartTime.Before(row.BatchEndTime) {
			t.Fatalf("expected batch_start_time < batch_end_time, got %+v", row)
		}
		if !row.BatchEndTime.Equal(end) {
			t.Fatalf("expected batch_end_time %v, got %v", end, row.BatchEndTime)
		}
	}
}

func TestRun_TwoCyclesAppendFourRows(t *testing.T) {
	gdb := openTestDB(t, &monitoring.PredictionLog{}, &monitoring.MonitoringMetric{})
	notifier := &fakeNotifier{enabled: true}

	end1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end2 := end1.Add(48 * time.Hour)
	seedPredictions(t, gdb, end1, 50, 0)
	seedPredictions(t, gdb, end2, 50, 0)

	for _, end := range []time.Time{end1, end2} {
		out, err := Run(context.Background(), testDeps(t, gdb, nil, notifier, end), Input{})
		if err != nil {
			t.Fatalf("Run at %v: %v", end, err)
		}
		if out.Skipped {
			t.Fatalf("unexpected skip at %v", end)
		}
	}

	rows := metricRows(t, gdb)
	if len(rows) != 4 {
		t.Fatalf("expected 4 metric rows across two cycles, got %d", len(rows))
	}
	perEnd := map[int64]int{}
	for _, row := range rows {
		perEnd[row.BatchEndTime.Unix()]++
	}
	if perEnd[end1.Unix()] != 2 || perEnd[end2.Unix()] != 2 {
		t.Fatalf("expected each cycle to own its 2 rows, got %v", perEnd)
	}
}

func TestRun_PersistFailureStillAlerts(t *testing.T) {
	// monitoring_metrics is never migrated, so the transaction fails.
	gdb := openTestDB(t, &monitoring.PredictionLog{})
	notifier := &fakeNotifier{enabled: true}
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedPredictions(t, gdb, end, 100, 50)

	out, err := Run(context.Background(), testDeps(t, gdb, nil, notifier, end), Input{})
	if err != nil {
		t.Fatalf("Run: expected persistence failure absorbed, got %v", err)
	}
	if out.MetricsWritten != 0 {
		t.Fatalf("expected no metrics written, got %d", out.MetricsWritten)
	}
	if !out.AlertSent || len(notifier.posts) != 1 {
		t.Fatalf("expected alert from in-memory summary despite persistence failure")
	}
}

func TestRun_MissingDepsRejected(t *testing.T) {
	_, err := Run(context.Background(), Deps{}, Input{})
	if err == nil {
		t.Fatalf("expected error for missing deps")
	}
}
