package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMailer_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := NewHTTPMailer(MailerConfig{BaseURL: srv.URL + "/", APIKey: "key", From: "shop@example.com", Timeout: time.Second}, srv.Client())

	n := OrderConfirmation(testOrder())
	require.NoError(t, mailer.Notify(context.Background(), n))

	assert.Equal(t, "shop@example.com", got.From)
	assert.Equal(t, []string{"ama@example.com"}, got.To)
	assert.Equal(t, string(TemplateOrderConfirmation), got.Template)
	assert.Equal(t, n.ID, got.IdempotencyKey)
}

func TestHTTPMailer_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	mailer := NewHTTPMailer(MailerConfig{BaseURL: srv.URL, Timeout: time.Second}, srv.Client())

	err := mailer.Notify(context.Background(), OrderConfirmation(testOrder()))
	require.ErrorIs(t, err, ErrProvider)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	mailer := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, mailer.Notify(context.Background(), OrderConfirmation(testOrder())))
	assert.Contains(t, buf.String(), "ama@example.com")
	assert.Contains(t, buf.String(), "order_confirmation")
}
