// Copyright (c) 2025 StratX21

package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/stratx21/scraperbot/pushover"
	"github.com/stratx21/scraperbot/schwab"
	"github.com/stratx21/scraperbot/telegram"
)

type Secrets struct {
	Schwab   *schwab.Secrets   `json:"schwab"`
	Pushover *pushover.Keys    `json:"pushover"`
	Telegram *telegram.Secrets `json:"telegram"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (v *Secrets) Check() error {
	if v.Schwab == nil {
		return fmt.Errorf("schwab credentials are required: %w", os.ErrInvalid)
	}
	if err := v.Schwab.Check(); err != nil {
		return err
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	return nil
}
