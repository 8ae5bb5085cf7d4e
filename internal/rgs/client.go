package rgs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cups_webapp/internal/logger"
	"cups_webapp/internal/metrics"

	"github.com/shopspring/decimal"
)

// Client talks to the remote game server wallet API. Every call is a single
// request/response round trip: no retries, no idempotency key, and no
// client-side timeout beyond what ctx imposes.
type Client struct {
	cfg        LaunchConfig
	httpClient *http.Client
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a wallet client for one launched session. The config is
// checked on every call, not here, so a client built from incomplete launch
// parameters fails each request with a configuration error.
func NewClient(cfg LaunchConfig, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the launch parameters the client was built with
func (c *Client) Config() LaunchConfig {
	return c.cfg
}

// Authenticate establishes the session balance
func (c *Client) Authenticate(ctx context.Context) (*AuthenticateResponse, error) {
	var out AuthenticateResponse
	err := c.post(ctx, "authenticate", PathAuthenticate, authenticateRequest{
		SessionID: c.cfg.SessionID,
		Language:  c.cfg.Language,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Play requests a new round for bet (in currency units)
func (c *Client) Play(ctx context.Context, bet decimal.Decimal) (*PlayResponse, error) {
	var out PlayResponse
	err := c.post(ctx, "play", PathPlay, playRequest{
		Mode:      c.cfg.Mode,
		Currency:  c.cfg.Currency,
		SessionID: c.cfg.SessionID,
		Amount:    ToAPIAmount(bet),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EndRound finalizes the currently open round
func (c *Client) EndRound(ctx context.Context) (*EndRoundResponse, error) {
	var out EndRoundResponse
	err := c.post(ctx, "end_round", PathEndRound, endRoundRequest{
		SessionID: c.cfg.SessionID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, op, path string, body any, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.WalletLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = KindOf(err).String()
		}
		metrics.WalletRequests.WithLabelValues(op, result).Inc()
		logger.WithContext(ctx).Debug("rgs call", "op", op, "result", result, "elapsed", time.Since(start))
	}()

	if err := c.cfg.Validate(); err != nil {
		var cfgErr *Error
		if errors.As(err, &cfgErr) {
			cfgErr.Op = op
		}
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return transportError(op, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.baseURL()+path, bytes.NewReader(payload))
	if err != nil {
		return transportError(op, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, resp.StatusCode, err)
	}

	var p errorPayload
	if jsonErr := json.Unmarshal(data, &p); jsonErr == nil && p.Error != "" {
		return payloadError(op, resp.StatusCode, p)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return transportError(op, resp.StatusCode, fmt.Errorf("%s - %s", resp.Status, truncate(data, 256)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return transportError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
