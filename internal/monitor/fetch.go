package monitor

import (
	"context"
	"time"

	"github.com/vigilml/vigil/internal/domain/monitoring"
	"github.com/vigilml/vigil/internal/pkg/dbctx"
	"github.com/vigilml/vigil/internal/platform/logger"
	"github.com/vigilml/vigil/internal/repos"
)

// Window is one half-open slice [Start, End) of production records.
type Window struct {
	Start   time.Time
	End     time.Time
	Records []monitoring.FeatureRecord

	// StoreFailed distinguishes "nothing arrived in the window" from "the
	// store was unreachable"; both degrade to an empty record set.
	StoreFailed bool
}

// Fetcher pulls the current monitoring window from the production store.
// It never returns an error: any store failure degrades to an empty window
// so the orchestrator can skip the cycle instead of crashing.
type Fetcher struct {
	predictions repos.PredictionLogRepo
	lookback    time.Duration
	log         *logger.Logger
	now         func() time.Time
}

func NewFetcher(predictions repos.PredictionLogRepo, lookback time.Duration, log *logger.Logger, now func() time.Time) *Fetcher {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Fetcher{
		predictions: predictions,
		lookback:    lookback,
		log:         log.With("component", "WindowFetcher"),
		now:         now,
	}
}

func (f *Fetcher) Fetch(ctx context.Context) Window {
	end := f.now()
	start := end.Add(-f.lookback)
	f.log.Info("Fetching production data", "start", start, "end", end)

	rows, err := f.predictions.ListBetween(dbctx.New(ctx), start, end)
	if err != nil {
		f.log.Error("Window fetch failed, degrading to empty window", "error", err)
		return Window{Start: start, End: end, StoreFailed: true}
	}

	records := make([]monitoring.FeatureRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	f.log.Info("Fetched records for monitoring", "count", len(records))
	return Window{Start: start, End: end, Records: records}
}
