// Copyright (c) 2025 StratX21

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stratx21/scraperbot/api"
	"github.com/stratx21/scraperbot/supervisor"
)

// ScraperStatuses asks the supervisor for a snapshot of every running
// scraper. The reply arrives on the next scheduler tick.
func (s *Server) ScraperStatuses(ctx context.Context) ([]*supervisor.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StatusTimeout)
	defer cancel()

	replyCh := make(chan []*supervisor.Status, 1)
	if err := s.sendCommand(supervisor.StatusCommand{ReplyCh: replyCh}); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("no status reply from the supervisor: %w", context.Cause(ctx))
	case statuses := <-replyCh:
		return statuses, nil
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.ScraperStatuses(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := &api.StatusResponse{
		Pid:       os.Getpid(),
		StartTime: s.startTime,
	}
	for _, v := range statuses {
		resp.Scrapers = append(resp.Scrapers, &api.ScraperStatus{
			Ticker:           v.Ticker,
			Equity:           v.Equity,
			MaintainedEquity: v.MaintainedEquity,
			WorkingBuy:       v.WorkingBuy,
			WorkingSell:      v.WorkingSell,
			Draining:         v.Draining,
		})
	}

	if p, err := process.NewProcessWithContext(r.Context(), int32(os.Getpid())); err == nil {
		if v, err := p.CPUPercentWithContext(r.Context()); err == nil {
			resp.CPUPercent = v
		}
		if mi, err := p.MemoryInfoWithContext(r.Context()); err == nil {
			resp.ResidentMemoryBytes = mi.RSS
		}
	}

	w.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("could not write status response (ignored)", "err", err)
	}
}
