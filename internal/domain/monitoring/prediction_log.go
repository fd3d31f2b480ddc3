package monitoring

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PredictionLog is one production observation written by the serving layer.
// This pipeline only ever reads it.
type PredictionLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Feature1 float64 `gorm:"column:feature_1;not null" json:"feature_1"`
	Feature2 float64 `gorm:"column:feature_2;not null" json:"feature_2"`

	Prediction int  `gorm:"column:prediction;not null" json:"prediction"`
	Target     *int `gorm:"column:target" json:"target,omitempty"`

	PredictionTime time.Time `gorm:"column:prediction_time;not null;index" json:"prediction_time"`
	ModelVersion   string    `gorm:"column:model_version;type:text;not null" json:"model_version"`
}

func (PredictionLog) TableName() string { return "prediction_logs" }

func (p *PredictionLog) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Record converts the stored row into the detector's column-oriented view.
func (p *PredictionLog) Record() FeatureRecord {
	pred := p.Prediction
	return FeatureRecord{
		Features: map[string]float64{
			"feature_1": p.Feature1,
			"feature_2": p.Feature2,
		},
		Prediction:   &pred,
		Target:       p.Target,
		Timestamp:    p.PredictionTime,
		ModelVersion: p.ModelVersion,
	}
}
