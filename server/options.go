// Copyright (c) 2025 StratX21

package server

import (
	"time"

	"github.com/stratx21/scraperbot/supervisor"
)

type Options struct {
	// Supervisor configures the scraper scheduler.
	Supervisor supervisor.Options

	// StatusTimeout bounds how long a status request waits for the
	// supervisor's reply.
	StatusTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.StatusTimeout == 0 {
		v.StatusTimeout = 10 * time.Second
	}
}

func (v *Options) Check() error {
	return nil
}
