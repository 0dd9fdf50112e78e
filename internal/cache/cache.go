// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package cache implements the TTL-aware cache store on top of the durable
// key-value store.
//
// Semantics:
//   - Read(key, maxAge) returns the payload only when a well-formed entry
//     exists and now-savedAt <= maxAge. Absent, corrupt, and expired entries
//     all read as misses; corruption is never surfaced as an error.
//   - Write overwrites unconditionally, stamping savedAt = now. A write
//     failure (full disk, quota) is swallowed: the caller's read path must
//     never fail because a snapshot could not be saved.
//   - Entries are only removed by Clear (logout), LRU eviction when the
//     store is over capacity, or an age-based Sweep.
package cache

import (
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/paddockhq/paddock/internal/kvstore"
	"github.com/paddockhq/paddock/internal/logging"
	"github.com/paddockhq/paddock/internal/metrics"
)

// keyPrefix namespaces every cache entry inside the durable store so that
// Clear("") can drop the whole cache without touching session state.
const keyPrefix = "cache:"

// Forever disables the age check on Read: any stored entry is acceptable.
const Forever time.Duration = -1

// entry is the persisted envelope around a cached payload. savedAt is unix
// milliseconds, matching the wire precision of the API's timestamps.
type entry struct {
	SavedAt int64           `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// Store is the TTL-aware cache store. One instance is constructed per
// session/process and passed by reference to the fetch orchestrator and the
// record workspaces; there is no package-global store.
type Store struct {
	kv    kvstore.Store
	index *lruIndex
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the store's time source. Tests use this to place
// entries precisely on the staleness boundary.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxEntries bounds the number of live cache entries. When the bound is
// exceeded the least recently used entry is deleted from the durable store.
// Zero or negative disables the bound.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		s.index = newLRUIndex(n, func(key string) {
			if err := s.kv.Delete(key); err != nil {
				logging.Warn().Err(err).Str("key", key).Msg("cache: evict delete failed")
			}
			metrics.CacheEvictions.WithLabelValues("lru").Inc()
		})
	}
}

// New creates a cache store over kv. Existing entries found in the durable
// store are registered with the LRU index so a restarted process keeps its
// bound accurate.
func New(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		now: time.Now,
	}
	s.index = newLRUIndex(0, nil)

	for _, opt := range opts {
		opt(s)
	}

	keys, err := kv.Keys(keyPrefix)
	if err != nil {
		logging.Warn().Err(err).Msg("cache: seeding index from durable store failed")
	}
	for _, key := range keys {
		s.index.Add(key)
	}
	metrics.CacheEntries.Set(float64(s.index.Len()))

	return s
}

// Read returns the cached payload for key if a valid entry no older than
// maxAge exists. The second return reports whether a payload was found;
// missing, corrupt, and expired entries are indistinguishable to callers.
func (s *Store) Read(key string, maxAge time.Duration) (json.RawMessage, bool) {
	raw, err := s.kv.Get(keyPrefix + key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("cache: read failed")
		}
		metrics.CacheMisses.WithLabelValues("absent").Inc()
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Payload == nil {
		// Corrupt entries read as misses. Drop the entry so the slot is
		// reclaimed rather than failing the same way on every read.
		_ = s.kv.Delete(keyPrefix + key)
		s.index.Remove(keyPrefix + key)
		metrics.CacheMisses.WithLabelValues("corrupt").Inc()
		return nil, false
	}

	if maxAge >= 0 {
		age := s.now().UnixMilli() - e.SavedAt
		if age > maxAge.Milliseconds() {
			metrics.CacheMisses.WithLabelValues("expired").Inc()
			return nil, false
		}
	}

	s.index.Touch(keyPrefix + key)
	metrics.CacheHits.Inc()
	return e.Payload, true
}

// Write stores payload under key with savedAt = now. Failures are logged and
// counted but never returned: a cache write must not fail the caller.
func (s *Store) Write(key string, payload json.RawMessage) {
	e := entry{
		SavedAt: s.now().UnixMilli(),
		Payload: payload,
	}

	raw, err := json.Marshal(e)
	if err != nil {
		metrics.CacheWriteFailures.Inc()
		logging.Warn().Err(err).Str("key", key).Msg("cache: marshal failed")
		return
	}

	if err := s.kv.Set(keyPrefix+key, raw); err != nil {
		metrics.CacheWriteFailures.Inc()
		logging.Warn().Err(err).Str("key", key).Msg("cache: write failed")
		return
	}

	s.index.Add(keyPrefix + key)
	metrics.CacheWrites.Inc()
	metrics.CacheEntries.Set(float64(s.index.Len()))
}

// Clear removes the entry with exactly the given key, or, when the key names
// a namespace, every entry under it. Clear("") drops the entire cache
// (logout path).
func (s *Store) Clear(prefixOrKey string) error {
	full := keyPrefix + prefixOrKey

	if _, err := s.kv.Get(full); err == nil {
		if err := s.kv.Delete(full); err != nil {
			return err
		}
		s.index.Remove(full)
		metrics.CacheEvictions.WithLabelValues("clear").Inc()
		metrics.CacheEntries.Set(float64(s.index.Len()))
		return nil
	}

	keys, err := s.kv.Keys(full)
	if err != nil {
		return err
	}
	if err := s.kv.DeletePrefix(full); err != nil {
		return err
	}
	for _, key := range keys {
		s.index.Remove(key)
		metrics.CacheEvictions.WithLabelValues("clear").Inc()
	}
	metrics.CacheEntries.Set(float64(s.index.Len()))
	return nil
}

// Sweep deletes every entry whose savedAt is older than olderThan and
// returns the number removed. Corrupt entries are removed as well. Run
// periodically by the supervisor's sweep service.
func (s *Store) Sweep(olderThan time.Duration) int {
	keys, err := s.kv.Keys(keyPrefix)
	if err != nil {
		logging.Warn().Err(err).Msg("cache: sweep key scan failed")
		return 0
	}

	horizon := s.now().UnixMilli() - olderThan.Milliseconds()
	removed := 0

	for _, key := range keys {
		raw, err := s.kv.Get(key)
		if err != nil {
			continue
		}

		var e entry
		stale := json.Unmarshal(raw, &e) != nil || e.Payload == nil || e.SavedAt < horizon
		if !stale {
			continue
		}

		if err := s.kv.Delete(key); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("cache: sweep delete failed")
			continue
		}
		s.index.Remove(key)
		metrics.CacheEvictions.WithLabelValues("sweep").Inc()
		removed++
	}

	metrics.CacheEntries.Set(float64(s.index.Len()))
	return removed
}

// Len returns the number of live cache entries.
func (s *Store) Len() int {
	return s.index.Len()
}
