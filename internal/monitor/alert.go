package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/vigilml/vigil/internal/domain/monitoring"
	"github.com/vigilml/vigil/internal/platform/logger"
	"github.com/vigilml/vigil/internal/platform/slack"
)

const windowTimeLayout = "2006-01-02 15:04:05"

// Alerter evaluates the drift-alert policy and sends a best-effort webhook
// notification. Delivery failures are logged and swallowed; they never abort
// the batch cycle, and a failed delivery is not retried within the cycle.
type Alerter struct {
	notifier  slack.Client
	threshold int
	log       *logger.Logger
}

func NewAlerter(notifier slack.Client, threshold int, log *logger.Logger) *Alerter {
	if threshold < 0 {
		threshold = 0
	}
	return &Alerter{
		notifier:  notifier,
		threshold: threshold,
		log:       log.With("component", "AlertDispatcher"),
	}
}

// Dispatch sends the alert when the drifted-feature count strictly exceeds
// the threshold. Reports whether a notification was delivered.
func (a *Alerter) Dispatch(ctx context.Context, summary monitoring.DatasetDriftSummary, start, end time.Time) bool {
	if summary.NumDriftedFeatures <= a.threshold {
		a.log.Debug("Drift below alert threshold",
			"drifted_features", summary.NumDriftedFeatures,
			"threshold", a.threshold,
		)
		return false
	}

	text := fmt.Sprintf(
		":rotating_light: Data Drift Detected!\nDrifted Features: %d\nDrift Score: %.4f\nWindow: %s -> %s",
		summary.NumDriftedFeatures,
		summary.Score(),
		start.Local().Format(windowTimeLayout),
		end.Local().Format(windowTimeLayout),
	)

	if a.notifier == nil || !a.notifier.Enabled() {
		a.log.Info("Webhook not configured, skipping drift alert",
			"drifted_features", summary.NumDriftedFeatures,
		)
		return false
	}

	if err := a.notifier.Post(ctx, text); err != nil {
		a.log.Warn("Drift alert delivery failed", "error", err)
		return false
	}
	a.log.Info("Drift alert sent", "drifted_features", summary.NumDriftedFeatures)
	return true
}
