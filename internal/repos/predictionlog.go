package repos

import (
  "time"

  "gorm.io/gorm"

  "github.com/vigilml/vigil/internal/domain/monitoring"
  "github.com/vigilml/vigil/internal/pkg/dbctx"
  "github.com/vigilml/vigil/internal/platform/logger"
)

type PredictionLogRepo interface {
  ListBetween(dbc dbctx.Context, start, end time.Time) ([]*monitoring.PredictionLog, error)
}

type predictionLogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPredictionLogRepo(db *gorm.DB, baseLog *logger.Logger) PredictionLogRepo {
  repoLog := baseLog.With("repo", "PredictionLogRepo")
  return &predictionLogRepo{db: db, log: repoLog}
}

// ListBetween returns every row whose prediction_time falls in [start, end).
func (r *predictionLogRepo) ListBetween(dbc dbctx.Context, start, end time.Time) ([]*monitoring.PredictionLog, error) {
  transaction := dbc.Tx
  if transaction == nil {
    transaction = r.db
  }
  rows := []*monitoring.PredictionLog{}
  err := transaction.WithContext(dbc.Ctx).
    Where("prediction_time >= ? AND prediction_time < ?", start, end).
    Order("prediction_time ASC").
    Find(&rows).Error
  if err != nil {
    return nil, err
  }
  return rows, nil
}
