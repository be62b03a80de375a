// Copyright (c) 2025 StratX21

// Package schwab implements the brokerage capability set against the Charles
// Schwab web trading API (the v2 endpoints used by the web interface).
package schwab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/stratx21/scraperbot/broker"
	"golang.org/x/time/rate"
)

const (
	ordersPath      = "/api/is.TradeOrderManagementWeb/v1/TradeOrderManagementWebPort/orders"
	quotesPath      = "/api/is.TradeOrderManagementWeb/v1/TradeOrderManagementWebPort/market/quotes/list"
	cancelOrderPath = "/api/is.TradeOrderStatusWeb/ITradeOrderStatusWeb/ITradeOrderStatusWebPort/orders/cancelorder"
	authorizePath   = "/api/auth/authorize/scope"
)

var _ broker.Client = (*Client)(nil)

type Client struct {
	opts Options

	accountID string

	client *http.Client

	limiter *rate.Limiter
}

// New creates a brokerage client for the given account. Credentials are not
// held by the client; they are taken on every call.
func New(accountID string, opts *Options) (*Client, error) {
	if len(accountID) == 0 {
		return nil, fmt.Errorf("account id cannot be empty: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	c := &Client{
		opts:      *opts,
		accountID: accountID,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(10, 1),
	}
	return c, nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) gatewayURL(path string) *url.URL {
	return &url.URL{
		Scheme: "https",
		Host:   c.opts.TradeGatewayHostname,
		Path:   path,
	}
}

func (c *Client) clientURL(path string) *url.URL {
	return &url.URL{
		Scheme: "https",
		Host:   c.opts.ClientHostname,
		Path:   path,
	}
}

// postJSON posts the request payload and returns the response status code
// with the raw body. Responses with 429 and 502 statuses are retried a
// limited number of times.
func (c *Client) postJSON(ctx context.Context, u *url.URL, token, resourceVersion string, request any) (int, []byte, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		slog.Error("could not marshal post request body to json", "err", err)
		return 0, nil, err
	}

	for retries := 0; ; retries++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
		if err != nil {
			slog.Error("could not create http post request with context", "url", u, "err", err)
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("schwab-client-account", c.accountID)
		req.Header.Set("schwab-resource-version", resourceVersion)

		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}

		s := time.Now()
		resp, err := c.client.Do(req)
		if d := time.Since(s); d > c.opts.HttpClientTimeout {
			slog.Warn(fmt.Sprintf("post request took %s which is more than the http client timeout %s", d, c.opts.HttpClientTimeout))
		}
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("could not perform http post request", "url", u, "err", err)
			}
			return 0, nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return resp.StatusCode, nil, fmt.Errorf("could not read response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusBadGateway {
			if retries < c.opts.MaxHttpRetries {
				slog.Warn("post request was throttled (retrying)", "url", u, "status", resp.StatusCode)
				time.Sleep(time.Second)
				continue
			}
		}
		return resp.StatusCode, body, nil
	}
}

func (c *Client) getJSON(ctx context.Context, u *url.URL, token string, resultPtr any) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		slog.Error("could not create http get request with context", "url", u, "err", err)
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("schwab-client-account", c.accountID)

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not perform http get request", "url", u, "err", err)
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusOK && resultPtr != nil {
		if err := json.Unmarshal(body, resultPtr); err != nil {
			return resp.StatusCode, body, fmt.Errorf("could not unmarshal response body: %w", err)
		}
	}
	return resp.StatusCode, body, nil
}
