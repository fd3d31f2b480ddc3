package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vigilml/vigil/internal/platform/envutil"
	"github.com/vigilml/vigil/internal/platform/logger"
)

// Client posts plain-text notifications to a Slack incoming webhook.
// Delivery is fire-and-forget: one attempt per message, never retried.
type Client interface {
	Post(ctx context.Context, text string) error

	// Enabled reports whether a webhook URL is configured. An unconfigured
	// client treats Post as a silent no-op.
	Enabled() bool
}

type Config struct {
	WebhookURL string
	Username   string
	IconEmoji  string
	Timeout    time.Duration
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("SLACK_TIMEOUT_SECONDS", 5)
	return Config{
		WebhookURL: strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")),
		Username:   envutil.String("SLACK_USERNAME", "Vigil Drift Bot"),
		IconEmoji:  envutil.String("SLACK_ICON_EMOJI", ":warning:"),
		Timeout:    time.Duration(timeoutSec) * time.Second,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if strings.TrimSpace(cfg.Username) == "" {
		cfg.Username = "Vigil Drift Bot"
	}
	if strings.TrimSpace(cfg.IconEmoji) == "" {
		cfg.IconEmoji = ":warning:"
	}
	return &client{
		log:        log.With("client", "SlackClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// message is the incoming-webhook wire format.
type message struct {
	Username  string `json:"username"`
	IconEmoji string `json:"icon_emoji"`
	Text      string `json:"text"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "slack: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return fmt.Sprintf("slack http %d: %s", e.StatusCode, msg)
}

func (c *client) Enabled() bool {
	return c != nil && strings.TrimSpace(c.cfg.WebhookURL) != ""
}

func (c *client) Post(ctx context.Context, text string) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("slack client unavailable")
	}
	if !c.Enabled() {
		c.log.Debug("Slack webhook not configured, skipping notification")
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(message{
		Username:  c.cfg.Username,
		IconEmoji: c.cfg.IconEmoji,
		Text:      text,
	}); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}
