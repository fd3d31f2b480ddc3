package monitoring

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MetricDataDriftSummary = "data_drift_summary"
	MetricPredictionCount  = "prediction_count"
)

// MonitoringMetric is one append-only metric row produced by a batch cycle.
// Rows are never updated or deleted; the dashboard reads them as written.
type MonitoringMetric struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Timestamp time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`

	DataDriftScore     float64 `gorm:"column:data_drift_score;not null;default:0" json:"data_drift_score"`
	NumDriftedFeatures int     `gorm:"column:num_drifted_features;not null;default:0" json:"num_drifted_features"`

	MetricName  string  `gorm:"column:metric_name;type:text;not null;index" json:"metric_name"`
	MetricValue float64 `gorm:"column:metric_value;not null;default:0" json:"metric_value"`

	ReportSummary datatypes.JSON `gorm:"column:report_summary" json:"report_summary,omitempty"`

	ModelVersion   string    `gorm:"column:model_version;type:text;not null" json:"model_version"`
	BatchStartTime time.Time `gorm:"column:batch_start_time;not null" json:"batch_start_time"`
	BatchEndTime   time.Time `gorm:"column:batch_end_time;not null;index" json:"batch_end_time"`
}

func (MonitoringMetric) TableName() string { return "monitoring_metrics" }

func (m *MonitoringMetric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
