// Copyright (c) 2025 StratX21

package schwab

import "time"

type Options struct {
	// TradeGatewayHostname serves the order management and quote endpoints.
	TradeGatewayHostname string

	// ClientHostname serves the token authorization endpoints.
	ClientHostname string

	HttpClientTimeout time.Duration

	// MaxHttpRetries limits the number of retries on 429 and 502 responses.
	MaxHttpRetries int
}

func (v *Options) setDefaults() {
	if len(v.TradeGatewayHostname) == 0 {
		v.TradeGatewayHostname = "ausgateway.schwab.com"
	}
	if len(v.ClientHostname) == 0 {
		v.ClientHostname = "client.schwab.com"
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 5 * time.Second
	}
	if v.MaxHttpRetries == 0 {
		v.MaxHttpRetries = 3
	}
}
