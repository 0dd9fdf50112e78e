// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package fetch implements the cache-through fetch protocol: always try the
// authoritative source first, write through on success, and fall back to a
// previously stored snapshot on failure.
//
// This is a fail-open read path with a fail-closed absent-cache path:
// serving a stale snapshot beats blocking the caller, but a missing snapshot
// never becomes a fabricated empty result; the original remote failure is
// propagated instead.
package fetch

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/paddockhq/paddock/internal/cache"
	"github.com/paddockhq/paddock/internal/logging"
	"github.com/paddockhq/paddock/internal/metrics"
)

// Source reports where a resolved payload came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
)

// Result is a resolved read with provenance. Callers must surface Stale to
// the end user (the "cached" badge): a degraded answer is never silently
// passed off as a live one.
type Result struct {
	Payload json.RawMessage
	Source  Source
	Stale   bool
}

// Fetcher retrieves the authoritative payload for one key.
type Fetcher func(ctx context.Context) (json.RawMessage, error)

// Orchestrator resolves keys against a remote fetcher and the cache store.
// It is constructed once per session and shared by the schema registry, the
// record workspaces, and the report pipeline.
type Orchestrator struct {
	cache *cache.Store
}

// NewOrchestrator creates an orchestrator over the given cache store.
func NewOrchestrator(store *cache.Store) *Orchestrator {
	return &Orchestrator{cache: store}
}

// Resolve fetches the payload for key from the remote and writes it through
// to the cache. If the remote fetch fails (transport error or application
// rejection alike), a cached entry no older than maxAge is returned with
// Source=cache and Stale=true. With no usable entry, the original fetch
// error is returned.
func (o *Orchestrator) Resolve(ctx context.Context, key string, maxAge time.Duration, fn Fetcher) (Result, error) {
	payload, err := fn(ctx)
	if err == nil {
		o.cache.Write(key, payload)
		metrics.FetchResolutions.WithLabelValues(string(SourceRemote)).Inc()
		return Result{Payload: payload, Source: SourceRemote, Stale: false}, nil
	}

	if cached, ok := o.cache.Read(key, maxAge); ok {
		logging.Warn().Err(err).Str("key", key).Msg("remote fetch failed, serving cached snapshot")
		metrics.FetchResolutions.WithLabelValues(string(SourceCache)).Inc()
		return Result{Payload: cached, Source: SourceCache, Stale: true}, nil
	}

	metrics.FetchFailures.Inc()
	return Result{}, err
}

// Decode unmarshals a resolved payload into T.
func Decode[T any](res Result) (T, error) {
	var out T
	err := json.Unmarshal(res.Payload, &out)
	return out, err
}
