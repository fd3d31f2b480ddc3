package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vigilml/vigil/internal/domain/monitoring"
	"github.com/vigilml/vigil/internal/pkg/dbctx"
	"github.com/vigilml/vigil/internal/platform/logger"
	"github.com/vigilml/vigil/internal/repos"
)

// reportSummary is the structured payload stored on the summary row.
type reportSummary struct {
	RowsChecked     int `json:"rows_checked"`
	DriftedFeatures int `json:"drifted_features"`
}

// Recorder persists one cycle's verdict as exactly two append-only metric
// rows inside a single transaction. A persistence failure rolls back both
// rows and is reported to the caller as non-fatal.
type Recorder struct {
	db           *gorm.DB
	metrics      repos.MonitoringMetricRepo
	modelVersion string
	log          *logger.Logger
	now          func() time.Time
}

func NewRecorder(db *gorm.DB, metrics repos.MonitoringMetricRepo, modelVersion string, log *logger.Logger, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		db:           db,
		metrics:      metrics,
		modelVersion: modelVersion,
		log:          log.With("component", "MetricsRecorder"),
		now:          now,
	}
}

func (r *Recorder) Persist(ctx context.Context, summary monitoring.DatasetDriftSummary, start, end time.Time) ([]*monitoring.MonitoringMetric, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid batch window: start %s is not before end %s", start, end)
	}

	payload, err := json.Marshal(reportSummary{
		RowsChecked:     summary.RowCount,
		DriftedFeatures: summary.NumDriftedFeatures,
	})
	if err != nil {
		return nil, fmt.Errorf("encode report summary: %w", err)
	}

	rows := []*monitoring.MonitoringMetric{
		{
			Timestamp:          r.now(),
			DataDriftScore:     summary.Score(),
			NumDriftedFeatures: summary.NumDriftedFeatures,
			MetricName:         monitoring.MetricDataDriftSummary,
			MetricValue:        summary.Score(),
			ReportSummary:      datatypes.JSON(payload),
			ModelVersion:       r.modelVersion,
			BatchStartTime:     start,
			BatchEndTime:       end,
		},
		{
			Timestamp:      r.now(),
			MetricName:     monitoring.MetricPredictionCount,
			MetricValue:    float64(summary.RowCount),
			ModelVersion:   r.modelVersion,
			BatchStartTime: start,
			BatchEndTime:   end,
		},
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		_, err := r.metrics.CreateMany(dbctx.WithTx(ctx, tx), rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("commit metrics: %w", err)
	}

	r.log.Info("Logged metrics", "rows", len(rows), "table", monitoring.MonitoringMetric{}.TableName())
	return rows, nil
}
