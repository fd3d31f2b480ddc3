package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vigilml/vigil/internal/domain/monitoring"
	"github.com/vigilml/vigil/internal/platform/logger"
)

type fakeNotifier struct {
	enabled bool
	err     error
	posts   []string
}

func (f *fakeNotifier) Post(ctx context.Context, text string) error {
	if !f.enabled {
		return nil
	}
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, text)
	return nil
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func testWindow() (time.Time, time.Time) {
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return end.Add(-24 * time.Hour), end
}

func TestDispatch_SendsWhenCountExceedsThreshold(t *testing.T) {
	notifier := &fakeNotifier{enabled: true}
	a := NewAlerter(notifier, 0, testLogger(t))
	start, end := testWindow()

	sent := a.Dispatch(context.Background(), monitoring.DatasetDriftSummary{
		DatasetDrift:       true,
		NumDriftedFeatures: 2,
	}, start, end)

	if !sent {
		t.Fatalf("expected alert sent with 2 drifted features over threshold 0")
	}
	if len(notifier.posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(notifier.posts))
	}
	msg := notifier.posts[0]
	if !strings.Contains(msg, "Drifted Features: 2") {
		t.Fatalf("message missing drifted count: %q", msg)
	}
	if !strings.Contains(msg, "Drift Score: 1.0000") {
		t.Fatalf("message missing 4-decimal drift score: %q", msg)
	}
	if !strings.Contains(msg, start.Local().Format(windowTimeLayout)) {
		t.Fatalf("message missing window start: %q", msg)
	}
}

func TestDispatch_ThresholdIsStrict(t *testing.T) {
	notifier := &fakeNotifier{enabled: true}
	a := NewAlerter(notifier, 2, testLogger(t))
	start, end := testWindow()

	sent := a.Dispatch(context.Background(), monitoring.DatasetDriftSummary{
		NumDriftedFeatures: 2,
	}, start, end)

	if sent || len(notifier.posts) != 0 {
		t.Fatalf("expected no alert when count equals threshold")
	}
}

func TestDispatch_UnconfiguredWebhookIsNoOp(t *testing.T) {
	notifier := &fakeNotifier{enabled: false}
	a := NewAlerter(notifier, 0, testLogger(t))
	start, end := testWindow()

	sent := a.Dispatch(context.Background(), monitoring.DatasetDriftSummary{
		NumDriftedFeatures: 3,
	}, start, end)

	if sent {
		t.Fatalf("expected no delivery without a configured webhook")
	}
}

func TestDispatch_DeliveryFailureIsNonFatal(t *testing.T) {
	notifier := &fakeNotifier{enabled: true, err: errors.New("connection refused")}
	a := NewAlerter(notifier, 0, testLogger(t))
	start, end := testWindow()

	sent := a.Dispatch(context.Background(), monitoring.DatasetDriftSummary{
		NumDriftedFeatures: 1,
	}, start, end)

	if sent {
		t.Fatalf("expected failed delivery reported as not sent")
	}
}

func TestDispatch_NilNotifierDoesNotPanic(t *testing.T) {
	a := NewAlerter(nil, 0, testLogger(t))
	start, end := testWindow()

	if sent := a.Dispatch(context.Background(), monitoring.DatasetDriftSummary{NumDriftedFeatures: 1}, start, end); sent {
		t.Fatalf("expected no delivery with nil notifier")
	}
}
