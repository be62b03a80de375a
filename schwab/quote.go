// Copyright (c) 2025 StratX21

package schwab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
)

// GetQuote returns the current top-of-book bid and ask for the ticker.
func (c *Client) GetQuote(ctx context.Context, creds broker.Credentials, ticker string) (*broker.Quote, error) {
	request := &quoteRequest{
		Symbols:        []string{ticker},
		AccountRegType: "S3",
	}

	status, body, err := c.postJSON(ctx, c.gatewayURL(quotesPath), creds.UpdateToken, "1.0", request)
	if err != nil {
		return nil, fmt.Errorf("could not post quote request: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &broker.AuthError{Status: status, Message: string(body)}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("quote request returned status %d: %s", status, body)
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not unmarshal quote response: %w", err)
	}
	if len(resp.Quotes) == 0 {
		return nil, fmt.Errorf("quote response has no entry for %q: %w", ticker, os.ErrNotExist)
	}

	bid, err := decimal.NewFromString(resp.Quotes[0].Quote.Bid.String())
	if err != nil {
		return nil, fmt.Errorf("could not parse bid price: %w", err)
	}
	ask, err := decimal.NewFromString(resp.Quotes[0].Quote.Ask.String())
	if err != nil {
		return nil, fmt.Errorf("could not parse ask price: %w", err)
	}
	return &broker.Quote{Bid: bid, Ask: ask}, nil
}
