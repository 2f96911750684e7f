// Package amis is the REST client for the external agricultural market
// information feed that supplies commodity prices for Botswana markets.
package amis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ExternalPrice is one raw record from the feed, in the feed's own
// commodity/market vocabulary. Price stays a string until the mapper parses
// it; the feed is not consistent about numeric formatting.
type ExternalPrice struct {
	Commodity string `json:"commodity"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Unit      string `json:"unit"`
}

// Client fetches external prices with bounded retries. The feed is flaky:
// exhausting all attempts is an expected condition that callers handle by
// falling back to local fluctuation, not an error.
type Client struct {
	baseURL     string
	maxAttempts int
	backoffBase time.Duration
	timeout     time.Duration
	httpClient  *http.Client
	logger      *slog.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config tunes the retry policy. Zero values fall back to 3 attempts, a 2s
// backoff base, and a 10s per-attempt timeout.
type Config struct {
	BaseURL     string
	MaxAttempts int
	BackoffBase time.Duration
	Timeout     time.Duration
}

// NewClient creates a feed client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		timeout:     cfg.Timeout,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger.With(slog.String("component", "amis")),
		sleep:       sleepCtx,
	}
}

// FetchPrices attempts to retrieve the current price list. It retries up to
// the attempt cap with linear backoff (base × attempt number) and returns the
// rows from the first attempt that yields a non-empty payload. A (nil, nil)
// return means the source is unavailable; the only error returned is context
// cancellation during backoff.
func (c *Client) FetchPrices(ctx context.Context) ([]ExternalPrice, error) {
	if c.baseURL == "" {
		c.logger.InfoContext(ctx, "no external feed configured")
		return nil, nil
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		rows, err := c.fetchOnce(ctx)
		if err == nil && len(rows) > 0 {
			c.logger.InfoContext(ctx, "external prices fetched",
				slog.Int("attempt", attempt),
				slog.Int("rows", len(rows)),
			)
			return rows, nil
		}

		if err == nil {
			err = fmt.Errorf("amis: empty payload")
		}
		c.logger.WarnContext(ctx, "external fetch attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.maxAttempts),
			slog.String("error", err.Error()),
		)

		if attempt < c.maxAttempts {
			if err := c.sleep(ctx, c.backoffBase*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}

	c.logger.WarnContext(ctx, "external price source unavailable, all attempts exhausted")
	return nil, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]ExternalPrice, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prices", nil)
	if err != nil {
		return nil, fmt.Errorf("amis: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amis: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("amis: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("amis: read body: %w", err)
	}

	var rows []ExternalPrice
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("amis: decode payload: %w", err)
	}
	return rows, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
