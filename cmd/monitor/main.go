package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vigilml/vigil/internal/db"
	"github.com/vigilml/vigil/internal/monitor"
	"github.com/vigilml/vigil/internal/platform/logger"
	"github.com/vigilml/vigil/internal/platform/slack"
	"github.com/vigilml/vigil/internal/reference"
	"github.com/vigilml/vigil/internal/repos"
)

func main() {
	migrate := flag.Bool("migrate", false, "create the pipeline tables before running the cycle")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := monitor.ConfigFromEnv()

	// The original deployment starts this job alongside the database; the
	// delay gives the store time to come up on first boot.
	if cfg.StartupDelaySeconds > 0 {
		log.Info("Waiting for store to be ready", "seconds", cfg.StartupDelaySeconds)
		time.Sleep(time.Duration(cfg.StartupDelaySeconds) * time.Second)
	}

	features, err := monitor.LoadFeatures(cfg.FeaturesPath)
	if err != nil {
		log.Error("Invalid feature declarations", "error", err)
		os.Exit(1)
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if *migrate {
		if err := postgresService.AutoMigrateAll(); err != nil {
			log.Error("Postgres auto migration failed", "error", err)
			os.Exit(1)
		}
	}
	thePG := postgresService.DB()

	predictionLogRepo := repos.NewPredictionLogRepo(thePG, log)
	monitoringMetricRepo := repos.NewMonitoringMetricRepo(thePG, log)

	notifier, err := slack.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init SlackClient", "error", err)
		os.Exit(1)
	}

	out, err := monitor.Run(context.Background(), monitor.Deps{
		DB:          thePG,
		Log:         log,
		Reference:   reference.NewCSVLoader(cfg.ReferencePath, features),
		Predictions: predictionLogRepo,
		Metrics:     monitoringMetricRepo,
		Notifier:    notifier,
	}, monitor.Input{
		ModelVersion:   cfg.ModelVersion,
		LookbackHours:  cfg.LookbackHours,
		Significance:   cfg.Significance,
		DriftShare:     cfg.DriftShare,
		DriftThreshold: cfg.DriftThreshold,
		Features:       features,
	})
	if err != nil {
		log.Error("Monitoring cycle aborted", "error", err)
		os.Exit(1)
	}

	if out.Skipped {
		log.Info("Cycle completed with no side effects", "skip_reason", out.SkipReason)
	}
}
