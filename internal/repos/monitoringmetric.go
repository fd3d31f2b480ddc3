package repos

import (
  "gorm.io/gorm"

  "github.com/vigilml/vigil/internal/domain/monitoring"
  "github.com/vigilml/vigil/internal/pkg/dbctx"
  "github.com/vigilml/vigil/internal/platform/logger"
)

type MonitoringMetricRepo interface {
  CreateMany(dbc dbctx.Context, rows []*monitoring.MonitoringMetric) ([]*monitoring.MonitoringMetric, error)
}

type monitoringMetricRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMonitoringMetricRepo(db *gorm.DB, baseLog *logger.Logger) MonitoringMetricRepo {
  repoLog := baseLog.With("repo", "MonitoringMetricRepo")
  return &monitoringMetricRepo{db: db, log: repoLog}
}

func (r *monitoringMetricRepo) CreateMany(dbc dbctx.Context, rows []*monitoring.MonitoringMetric) ([]*monitoring.MonitoringMetric, error) {
  transaction := dbc.Tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*monitoring.MonitoringMetric{}, nil
  }
  if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}
