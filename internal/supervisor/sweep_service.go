// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package supervisor

import (
	"context"
	"time"

	"github.com/paddockhq/paddock/internal/cache"
	"github.com/paddockhq/paddock/internal/logging"
)

// SweepService periodically evicts cache entries older than a cutoff. It
// bounds durable-store growth over time; the LRU bound handles entry count.
type SweepService struct {
	cache    *cache.Store
	interval time.Duration
	maxAge   time.Duration
}

// NewSweepService creates a sweep service. interval <= 0 defaults to one
// hour; maxAge <= 0 defaults to seven days.
func NewSweepService(store *cache.Store, interval, maxAge time.Duration) *SweepService {
	if interval <= 0 {
		interval = time.Hour
	}
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &SweepService{cache: store, interval: interval, maxAge: maxAge}
}

// Serve implements suture.Service. It sweeps once on startup, then on every
// tick, until the context is canceled.
func (s *SweepService) Serve(ctx context.Context) error {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SweepService) sweep() {
	removed := s.cache.Sweep(s.maxAge)
	if removed > 0 {
		logging.Info().
			Int("removed", removed).
			Dur("max_age", s.maxAge).
			Msg("cache sweep evicted aged entries")
	}
}

// String names the service in supervisor logs.
func (s *SweepService) String() string { return "cache-sweeper" }
