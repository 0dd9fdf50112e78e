// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package api implements the client for the farm-operations REST API.
//
// Every response follows the {ok, message?, ...payload} envelope; ok:false
// is an application-level error even on HTTP 200 and is returned as an
// *APIError carrying the server's message verbatim. Transport failures are
// returned as-is. Callers (the fetch orchestrator) treat both as fetch
// failures on read paths; write paths never fall back.
//
// Resilience, in the same shape as the rest of the codebase's upstream
// clients: a token-bucket rate limiter in front of a circuit breaker that
// opens after a sustained failure rate, so a dead origin stops burning the
// request budget.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/paddockhq/paddock/internal/config"
	"github.com/paddockhq/paddock/internal/logging"
	"github.com/paddockhq/paddock/internal/metrics"
	"github.com/paddockhq/paddock/internal/models"
	"github.com/paddockhq/paddock/internal/query"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024

// TokenSource supplies the bearer token attached to every request. The
// session layer implements it; tests use a literal.
type TokenSource interface {
	Token() (string, error)
}

// RecordsAPI is the surface the workspace, schema registry, and report
// pipeline consume. *Client implements it; tests substitute stubs.
type RecordsAPI interface {
	Entities(ctx context.Context, module string) (json.RawMessage, error)
	Records(ctx context.Context, module string, d query.Descriptor) (json.RawMessage, error)
	CreateRecord(ctx context.Context, module, table string, record map[string]any) (*models.WriteReceipt, error)
	UpdateRecord(ctx context.Context, module, table, id string, record map[string]any) (*models.WriteReceipt, error)
	DeleteRecord(ctx context.Context, module, table, id string) (*models.WriteReceipt, error)
}

// Client is the HTTP client for the farm-operations API.
//
// Thread safety: safe for concurrent use; each request builds its own
// http.Request.
type Client struct {
	baseURL string
	hc      *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[json.RawMessage]
}

// NewClient creates a client for the API described by cfg. tokens may be
// nil for unauthenticated endpoints (tests).
func NewClient(cfg *config.APIConfig, tokens TokenSource) *Client {
	cbName := "farm-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Open when failure rate >= 60% with at least 10 requests in the
		// measurement window.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		cb:      cb,
	}
}

// Entities fetches the entity schemas for a module. Returns the raw
// envelope body so the registry can cache it verbatim.
func (c *Client) Entities(ctx context.Context, module string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("module", module)
	return c.do(ctx, "entities", http.MethodGet, "/entities", q, nil)
}

// Records fetches one page of records per the descriptor. Returns the raw
// envelope body for caching.
func (c *Client) Records(ctx context.Context, module string, d query.Descriptor) (json.RawMessage, error) {
	return c.do(ctx, "records", http.MethodGet, "/records", d.Values(module), nil)
}

// CreateRecord creates a record. The receipt distinguishes a committed
// write from a queued (accepted but deferred) one.
func (c *Client) CreateRecord(ctx context.Context, module, table string, record map[string]any) (*models.WriteReceipt, error) {
	body := map[string]any{"module": module, "table": table, "record": record}
	return c.write(ctx, "create", http.MethodPost, "/records", nil, body)
}

// UpdateRecord updates the record with the given primary-key value.
func (c *Client) UpdateRecord(ctx context.Context, module, table, id string, record map[string]any) (*models.WriteReceipt, error) {
	body := map[string]any{"module": module, "table": table, "record": record}
	return c.write(ctx, "update", http.MethodPut, "/records/"+url.PathEscape(id), nil, body)
}

// DeleteRecord deletes the record with the given primary-key value.
func (c *Client) DeleteRecord(ctx context.Context, module, table, id string) (*models.WriteReceipt, error) {
	q := url.Values{}
	q.Set("module", module)
	q.Set("table", table)
	return c.write(ctx, "delete", http.MethodDelete, "/records/"+url.PathEscape(id), q, nil)
}

// Dashboard fetches the dashboard payload (raw envelope body, cacheable).
func (c *Client) Dashboard(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, "dashboard", http.MethodGet, "/dashboard", nil, nil)
}

// Report fetches a named report endpoint under /reports with the given
// query parameters (raw envelope body, cacheable).
func (c *Client) Report(ctx context.Context, name string, q url.Values) (json.RawMessage, error) {
	return c.do(ctx, "report", http.MethodGet, "/reports/"+url.PathEscape(name), q, nil)
}

// do performs one read request and returns the full envelope body. A
// validated envelope counts under the "success" outcome.
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body any) (json.RawMessage, error) {
	payload, err := c.exec(ctx, op, method, path, q, body)
	if err != nil {
		return nil, err
	}
	metrics.APIRequests.WithLabelValues(op, "success").Inc()
	return payload, nil
}

// write performs one write request and decodes the receipt. Committed
// writes count under the "success" outcome, queued (accepted but deferred)
// ones under "queued".
func (c *Client) write(ctx context.Context, op, method, path string, q url.Values, body any) (*models.WriteReceipt, error) {
	raw, err := c.exec(ctx, op, method, path, q, body)
	if err != nil {
		return nil, err
	}
	receipt, err := decodeReceipt(raw)
	if err != nil {
		metrics.APIRequests.WithLabelValues(op, "error").Inc()
		return nil, err
	}
	outcome := "success"
	if receipt.Queued {
		outcome = "queued"
	}
	metrics.APIRequests.WithLabelValues(op, outcome).Inc()
	return receipt, nil
}

// exec runs one API request through the rate limiter and circuit breaker
// and validates the response envelope. Failure outcomes are counted here;
// each request's success outcome is counted exactly once by the caller.
func (c *Client) exec(ctx context.Context, op, method, path string, q url.Values, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	payload, err := c.cb.Execute(func() (json.RawMessage, error) {
		return c.roundTrip(ctx, method, path, q, body)
	})
	metrics.APIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.APIRequests.WithLabelValues(op, "rejected").Inc()
		logging.Warn().Err(err).Str("operation", op).Msg("request rejected by circuit breaker")
	default:
		metrics.APIRequests.WithLabelValues(op, "error").Inc()
	}

	return payload, err
}

// roundTrip builds, sends, and envelope-checks one HTTP request.
func (c *Client) roundTrip(ctx context.Context, method, path string, q url.Values, body any) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("bearer token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    envelopeMessage(io.LimitReader(resp.Body, maxErrorBodySize)),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// ok:false is an application-level error even on HTTP 200.
	var env struct {
		OK      *bool  `json:"ok"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.OK != nil && !*env.OK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	return payload, nil
}

// decodeReceipt decodes a write receipt envelope.
func decodeReceipt(raw json.RawMessage) (*models.WriteReceipt, error) {
	var receipt models.WriteReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("decode write receipt: %w", err)
	}
	return &receipt, nil
}

// envelopeMessage extracts the server message from an error response body,
// falling back to the raw body text.
func envelopeMessage(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return ""
	}

	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		return env.Message
	}
	return strings.TrimSpace(string(body))
}

// stateToFloat converts circuit breaker state to a metric value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to a label value.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
