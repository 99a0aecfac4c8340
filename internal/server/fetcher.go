package server

import (
	"context"
	"time"
)

// FetchDataInInterval runs a scrape sweep on every tick until ctx is done.
func (s Server) FetchDataInInterval(ctx context.Context, ticker *time.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("FetchDataInInterval: Stopped")
			return
		case <-ticker.C:
			s.fetchData(ctx)
		}
	}
}

// fetchData runs one sweep over all active sources unless one is already running.
func (s Server) fetchData(ctx context.Context) bool {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.Logger.Info("fetchData: Previous sweep still running, skipping")
		return false
	}
	defer s.sweeping.Store(false)

	s.Logger.Info("fetchData: Starting to fetch all active sources")
	summary, err := s.Tracker.ScrapeAll(ctx)
	if err != nil {
		s.Logger.Errorf("fetchData: Error running sweep, err: %v", err)
		return true
	}
	s.Logger.Infof("fetchData: Finished fetching, success: %d, failed: %d", summary.Success, summary.Failed)
	return true
}
