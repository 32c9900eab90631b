// Package payment is the client for the hosted payment gateway: transaction
// initialization, verification and webhook signature checks.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/circuitbreaker"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrGateway marks every failure reported by or on the way to the gateway.
var ErrGateway = errors.New("payment gateway error")

// GatewayError is a non-2xx or status:false reply.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway returned %d: %s", e.StatusCode, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return ErrGateway
}

// rejected replies mean the gateway is up; they do not count toward tripping the breaker.
func isRejection(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.StatusCode < 500
}

func openAsGateway(err error) error {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return err
}

type Config struct {
	BaseURL   string
	SecretKey string
	Currency  string
	Channels  []string
	Timeout   time.Duration
}

type InitializeRequest struct {
	Amount      domain.Amount
	Email       string
	Reference   string
	CallbackURL string
	UserID      string
	OrderID     string
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Verification struct {
	Status          string          `json:"status"`
	Amount          domain.Amount   `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Reference       string          `json:"reference"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Customer        json.RawMessage `json:"customer,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

type Client struct {
	baseURL    string
	secretKey  string
	currency   string
	channels   []string
	httpClient *http.Client
	initCB     *circuitbreaker.Breaker[*Authorization]
	verifyCB   *circuitbreaker.Breaker[*Verification]
}

// NewClient builds a gateway client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	settings := circuitbreaker.DefaultSettings("payment-gateway")
	settings.IsSuccessful = isRejection

	initSettings, verifySettings := settings, settings
	initSettings.Name += "-initialize"
	verifySettings.Name += "-verify"

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		currency:   cfg.Currency,
		channels:   cfg.Channels,
		httpClient: httpClient,
		initCB:     circuitbreaker.New[*Authorization](initSettings),
		verifyCB:   circuitbreaker.New[*Verification](verifySettings),
	}
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeBody struct {
	Email       string            `json:"email"`
	Amount      string            `json:"amount"`
	Reference   string            `json:"reference,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Channels    []string          `json:"channels,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Initialize creates a transaction for req.Amount (major units) and returns where to
// send the payer. Metadata carries the user and order ids back on the webhook.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	metadata := map[string]string{"user_id": req.UserID}
	if req.OrderID != "" {
		metadata["order_id"] = req.OrderID
	}
	body := initializeBody{
		Email:       req.Email,
		Amount:      strconv.FormatInt(req.Amount.Minor(), 10),
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Currency:    c.currency,
		Channels:    c.channels,
		Metadata:    metadata,
	}

	auth, err := c.initCB.Execute(ctx, func(ctx context.Context) (*Authorization, error) {
		var resp envelope[Authorization]
		if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
			return nil, err
		}
		return &resp.Data, nil
	})
	return auth, openAsGateway(err)
}

type verifyData struct {
	Status          string          `json:"status"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Reference       string          `json:"reference"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *time.Time      `json:"paid_at"`
	Customer        json.RawMessage `json:"customer"`
	Metadata        json.RawMessage `json:"metadata"`
}

// Verify fetches the current state of a transaction. The amount is converted back to
// major units.
func (c *Client) Verify(ctx context.Context, reference string) (*Verification, error) {
	path := "/transaction/verify/" + url.PathEscape(reference)

	v, err := c.verifyCB.Execute(ctx, func(ctx context.Context) (*Verification, error) {
		var resp envelope[verifyData]
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		d := resp.Data
		return &Verification{
			Status:          d.Status,
			Amount:          domain.AmountFromMinor(d.Amount),
			Currency:        d.Currency,
			Reference:       d.Reference,
			GatewayResponse: d.GatewayResponse,
			PaidAt:          d.PaidAt,
			Customer:        d.Customer,
			Metadata:        d.Metadata,
		}, nil
	})
	return v, openAsGateway(err)
}

type statusEnvelope interface {
	ok() (bool, string)
}

func (e *envelope[T]) ok() (bool, string) {
	return e.Status, e.Message
}

func (c *Client) do(ctx context.Context, method, path string, in any, out statusEnvelope) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrGateway, err)
	}

	decodeErr := json.Unmarshal(raw, out)
	status, message := out.ok()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &GatewayError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrGateway, decodeErr)
	}
	if !status {
		return &GatewayError{StatusCode: resp.StatusCode, Message: message}
	}
	return nil
}
