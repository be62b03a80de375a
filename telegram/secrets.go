// Copyright (c) 2025 StratX21

package telegram

import (
	"fmt"
	"slices"
)

type Secrets struct {
	BotToken string `json:"token"`

	// OwnerID is the telegram username that controls the bot.
	OwnerID string `json:"owner"`

	// OtherIDs are additional usernames allowed to issue commands and
	// receive notifications.
	OtherIDs []string `json:"others"`
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if len(v.OwnerID) == 0 {
		return fmt.Errorf("owner id cannot be empty")
	}
	if slices.Contains(v.OtherIDs, "") {
		return fmt.Errorf("empty string in other ids is not a valid id")
	}
	if slices.Contains(v.OtherIDs, v.OwnerID) {
		return fmt.Errorf("owner id should not be repeated in other ids")
	}
	return nil
}

func (v *Secrets) Clone() *Secrets {
	return &Secrets{
		BotToken: v.BotToken,
		OwnerID:  v.OwnerID,
		OtherIDs: slices.Clone(v.OtherIDs),
	}
}
