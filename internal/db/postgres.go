package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/vigilml/vigil/internal/domain/monitoring"
  "github.com/vigilml/vigil/internal/platform/envutil"
  "github.com/vigilml/vigil/internal/platform/logger"
)

type PostgresService struct {
  db *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  postgresHost := envutil.String("POSTGRES_HOST", "localhost")
  postgresPort := envutil.String("POSTGRES_PORT", "5432")
  postgresUser := envutil.String("POSTGRES_USER", "postgres")
  postgresPassword := envutil.String("POSTGRES_PASSWORD", "")
  postgresName := envutil.String("POSTGRES_NAME", "vigil")

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  serviceLog.Info("Connecting to Postgres...", "host", postgresHost, "port", postgresPort, "database", postgresName)
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
  }

  return &PostgresService{db: gdb, log: serviceLog}, nil
}

// AutoMigrateAll creates the two pipeline tables when they do not exist yet.
// The batch cycle itself assumes the schema is already in place; this is an
// operator convenience behind the -migrate flag.
func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &monitoring.PredictionLog{},
    &monitoring.MonitoringMetric{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
