// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package metrics provides Prometheus instrumentation for the data layer:
// cache efficiency, cache-through fetch outcomes, remote API latency, and
// circuit breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Store metrics

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paddock_cache_hits_total",
			Help: "Total number of cache reads that returned a valid entry",
		},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paddock_cache_misses_total",
			Help: "Total number of cache reads that returned no entry",
		},
		[]string{"reason"}, // "absent", "expired", "corrupt"
	)

	CacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paddock_cache_writes_total",
			Help: "Total number of cache write-throughs",
		},
	)

	CacheWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paddock_cache_write_failures_total",
			Help: "Total number of swallowed cache write failures",
		},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paddock_cache_evictions_total",
			Help: "Total number of cache entries removed by bounding policies",
		},
		[]string{"policy"}, // "lru", "sweep", "clear"
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paddock_cache_entries",
			Help: "Current number of live cache entries tracked by the LRU index",
		},
	)

	// Cache-through fetch orchestrator metrics

	FetchResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paddock_fetch_resolutions_total",
			Help: "Total number of resolved reads by provenance",
		},
		[]string{"source"}, // "remote", "cache"
	)

	FetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paddock_fetch_failures_total",
			Help: "Total number of reads that failed remotely with no usable cache entry",
		},
	)

	FetchSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paddock_fetch_superseded_total",
			Help: "Total number of in-flight responses discarded because a newer query was issued",
		},
	)

	// Remote API client metrics

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paddock_api_requests_total",
			Help: "Total number of remote API requests by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "success", "queued", "error", "rejected"
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paddock_api_request_duration_seconds",
			Help:    "Duration of remote API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paddock_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paddock_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
