// Copyright (c) 2025 StratX21

// Package pushover sends push notifications through the pushover.net
// messages API.
package pushover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

type Keys struct {
	ApplicationKey string `json:"application_key"`
	UserKey        string `json:"user_key"`
}

func (k *Keys) Check() error {
	if len(k.ApplicationKey) == 0 || len(k.UserKey) == 0 {
		return fmt.Errorf("pushover keys cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}

type Client struct {
	keys Keys

	httpClient *http.Client
}

func New(keys *Keys) (*Client, error) {
	if err := keys.Check(); err != nil {
		return nil, err
	}
	return &Client{
		keys:       *keys,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, at time.Time, msg string) error {
	type message struct {
		Token     string `json:"token"`
		User      string `json:"user"`
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
	}
	var body bytes.Buffer
	m := &message{
		Token:     c.keys.ApplicationKey,
		User:      c.keys.UserKey,
		Message:   msg,
		Timestamp: at.Unix(),
	}
	if err := json.NewEncoder(&body).Encode(m); err != nil {
		return fmt.Errorf("could not json-encode message: %w", err)
	}

	u := &url.URL{
		Scheme: "https",
		Host:   "api.pushover.net",
		Path:   "/1/messages.json",
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &body)
	if err != nil {
		return fmt.Errorf("could not create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not perform post request: %w", err)
	}
	defer resp.Body.Close()

	type response struct {
		Status int      `json:"status"`
		Errors []string `json:"errors"`
	}
	r := new(response)
	if err := json.NewDecoder(resp.Body).Decode(r); err != nil {
		return fmt.Errorf("could not json-decode response for http-status %d: %w", resp.StatusCode, err)
	}
	if r.Status != 1 {
		if len(r.Errors) != 0 {
			return fmt.Errorf("send failed with http-status %d: %s", resp.StatusCode, r.Errors[0])
		}
		return fmt.Errorf("send failed with http-status %d and response-status %d", resp.StatusCode, r.Status)
	}
	return nil
}
