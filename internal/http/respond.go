package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError is the one place service errors become HTTP responses. Every
// failure is logged with the request context; 5xx bodies never carry the cause.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, attrs ...any) {
	var status int
	var code string

	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmptyCart):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidSignature):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "permission_denied"
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrIllegalTransition):
		status, code = http.StatusConflict, "illegal_transition"
	case errors.Is(err, service.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrUpstream):
		status, code = http.StatusBadGateway, "upstream_error"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}

	attrs = append(attrs, "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		slog.WarnContext(r.Context(), "request rejected", attrs...)
	}

	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		message = "internal server error"
	case http.StatusBadGateway:
		message = "payment or email provider unavailable"
	case http.StatusGatewayTimeout:
		message = "request timed out"
	case http.StatusUnauthorized:
		if errors.Is(err, service.ErrInvalidCredentials) {
			message = service.ErrInvalidCredentials.Error()
		}
	}
	respondError(w, status, code, message)
}

// decodeJSON reads a single JSON object, rejecting unknown fields and trailing data.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", service.ErrInvalidInput)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", service.ErrInvalidInput, maxErr.Limit)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", service.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", service.ErrInvalidInput)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, key)
	}
	return n, nil
}

func queryAmount(r *http.Request, key string) (*domain.Amount, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	a, err := domain.ParseAmount(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", service.ErrInvalidInput, key)
	}
	return &a, nil
}

func parsePagination(r *http.Request) (domain.Pagination, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return domain.Pagination{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return domain.Pagination{}, err
	}
	return domain.Pagination{Page: page, Limit: limit}.Normalize(), nil
}

// parseSort reads ?sort=<field>&order=asc|desc. Unknown fields fall back to the
// repository default; the direction defaults to descending.
func parseSort(r *http.Request) (domain.SortSpec, error) {
	q := r.URL.Query()
	spec := domain.SortSpec{Field: q.Get("sort"), Descending: true}
	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
	case "asc":
		spec.Descending = false
	default:
		return spec, fmt.Errorf("%w: order must be asc or desc", service.ErrInvalidInput)
	}
	return spec, nil
}
