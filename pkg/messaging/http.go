package messaging

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 15 * time.Second

// HTTPSender posts messages to the messaging gateway. Every call
// carries the request context and the client-level timeout, so a
// stalled gateway can never stall an automation batch indefinitely.
type HTTPSender struct {
	client *resty.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPSender(cfg Config) *HTTPSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetTimeout(timeout)

	return &HTTPSender{client: client}
}

func (s *HTTPSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	return s.post(ctx, "/v1/email", msg)
}

func (s *HTTPSender) SendWhatsApp(ctx context.Context, msg WhatsAppMessage) error {
	return s.post(ctx, "/v1/whatsapp", msg)
}

func (s *HTTPSender) SendNotification(ctx context.Context, notification Notification) error {
	return s.post(ctx, "/v1/notifications", notification)
}

func (s *HTTPSender) post(ctx context.Context, path string, body any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("messaging request to %s failed: %w", path, err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("messaging gateway returned %d for %s: %s", resp.StatusCode(), path, resp.String())
	}

	return nil
}
