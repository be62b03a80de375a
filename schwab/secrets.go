// Copyright (c) 2025 StratX21

package schwab

import (
	"fmt"
	"os"

	"github.com/stratx21/scraperbot/broker"
)

// Secrets holds the account id and the initial bearer token pair. Tokens are
// rotated at runtime through RefreshCredentials; only the bootstrap pair
// comes from the secrets file.
type Secrets struct {
	AccountID   string `json:"account_id"`
	APIToken    string `json:"api_token"`
	UpdateToken string `json:"update_token"`
}

func (s *Secrets) Check() error {
	if len(s.AccountID) == 0 {
		return fmt.Errorf("schwab account id cannot be empty: %w", os.ErrInvalid)
	}
	if len(s.APIToken) == 0 || len(s.UpdateToken) == 0 {
		return fmt.Errorf("schwab bearer tokens cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}

func (s *Secrets) Credentials() broker.Credentials {
	return broker.Credentials{
		APIToken:    s.APIToken,
		UpdateToken: s.UpdateToken,
	}
}
