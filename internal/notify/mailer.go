package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrProvider = errors.New("mail provider error")

type MailerConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

// HTTPMailer sends through the hosted provider's REST API.
type HTTPMailer struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
	cb         *circuitbreaker.Breaker[struct{}]
}

func NewHTTPMailer(cfg MailerConfig, httpClient *http.Client) *HTTPMailer {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPMailer{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/emails",
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		httpClient: httpClient,
		cb:         circuitbreaker.New[struct{}](circuitbreaker.DefaultSettings("mail-provider")),
	}
}

type sendRequest struct {
	From     string         `json:"from"`
	To       []string       `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
	// provider-side dedup across bus redeliveries
	IdempotencyKey string `json:"idempotency_key"`
}

func (m *HTTPMailer) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(sendRequest{
		From:           m.from,
		To:             []string{n.To},
		Subject:        n.Subject,
		Template:       string(n.Template),
		Data:           n.Data,
		IdempotencyKey: n.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	_, err = m.cb.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %v", ErrProvider, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return struct{}{}, fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return struct{}{}, nil
	})
	return err
}

// LogMailer records outgoing mail instead of sending it, for environments without a
// provider.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Notify(ctx context.Context, n Notification) error {
	m.logger.InfoContext(ctx, "email not sent, no provider configured",
		"template", n.Template, "to", n.To, "subject", n.Subject, "notification_id", n.ID)
	return nil
}
