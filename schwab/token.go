// Copyright (c) 2025 StratX21

package schwab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stratx21/scraperbot/broker"
	"gopkg.in/square/go-jose.v2/jwt"
)

// RefreshCredentials exchanges the current bearer tokens for fresh ones from
// the authorization endpoints. Tokens are good for roughly 30 minutes; the
// caller is expected to refresh on a much shorter period.
func (c *Client) RefreshCredentials(ctx context.Context, creds broker.Credentials) (broker.Credentials, error) {
	update, err := c.authorize(ctx, creds.APIToken, "update")
	if err != nil {
		return broker.Credentials{}, err
	}
	api, err := c.authorize(ctx, creds.APIToken, "api")
	if err != nil {
		return broker.Credentials{}, err
	}

	fresh := broker.Credentials{APIToken: api, UpdateToken: update}
	if expiry, err := TokenExpiry(api); err != nil {
		slog.Warn("could not determine refreshed api token expiry", "err", err)
	} else {
		slog.Info("refreshed brokerage tokens", "api-token-expiry", expiry, "valid-for", time.Until(expiry).Truncate(time.Second))
	}
	return fresh, nil
}

func (c *Client) authorize(ctx context.Context, token, scope string) (string, error) {
	var resp authorizeResponse
	status, body, err := c.getJSON(ctx, c.clientURL(authorizePath+"/"+scope), token, &resp)
	if err != nil {
		return "", fmt.Errorf("could not fetch %q scope token: %w", scope, err)
	}
	if status != http.StatusOK {
		return "", &broker.AuthError{Status: status, Message: string(body)}
	}
	if len(resp.Token) == 0 {
		return "", &broker.AuthError{Status: status, Message: "authorize response has no token"}
	}
	return resp.Token, nil
}

// TokenExpiry decodes the expiry claim from a bearer token without verifying
// its signature.
func TokenExpiry(token string) (time.Time, error) {
	parsed, err := jwt.ParseSigned(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse bearer token as a jwt: %w", err)
	}
	var claims jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return time.Time{}, fmt.Errorf("could not decode jwt claims: %w", err)
	}
	if claims.Expiry == nil {
		return time.Time{}, fmt.Errorf("jwt has no expiry claim")
	}
	return claims.Expiry.Time(), nil
}
