// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package config loads and validates Paddock's configuration via Koanf v2
// with layered sources: built-in defaults, then an optional YAML file, then
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration.
type Config struct {
	// Tenant is the acting farm context. Cache keys are namespaced by it so
	// switching farms can never serve another farm's cached rows.
	Tenant string `koanf:"tenant" validate:"required"`

	API     APIConfig     `koanf:"api"`
	Store   StoreConfig   `koanf:"store"`
	Cache   CacheConfig   `koanf:"cache"`
	Report  ReportConfig  `koanf:"report"`
	Logging LoggingConfig `koanf:"logging"`
}

// APIConfig configures the remote REST client.
type APIConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RatePerSecond and RateBurst bound outbound request rate.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"gt=0"`
	RateBurst     int     `koanf:"rate_burst" validate:"gt=0"`
}

// StoreConfig configures the durable key-value store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// CacheConfig configures TTLs and bounding for the cache store.
type CacheConfig struct {
	// MaxEntries bounds live cache entries (LRU). Zero disables the bound.
	MaxEntries int `koanf:"max_entries" validate:"gte=0"`

	// ListTTL is the staleness window for record pages served from cache.
	ListTTL time.Duration `koanf:"list_ttl" validate:"gt=0"`

	// SchemaTTL is the staleness window for entity metadata. Schemas change
	// rarely, so this is multi-day.
	SchemaTTL time.Duration `koanf:"schema_ttl" validate:"gt=0"`

	// ReportTTL is the staleness window for report source row-sets.
	ReportTTL time.Duration `koanf:"report_ttl" validate:"gt=0"`

	// DashboardTTL is the staleness window for the dashboard summary.
	DashboardTTL time.Duration `koanf:"dashboard_ttl" validate:"gt=0"`

	// SweepInterval and SweepMaxAge drive the periodic age-based sweep.
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
	SweepMaxAge   time.Duration `koanf:"sweep_max_age" validate:"gt=0"`
}

// ReportConfig configures the aggregation pipeline.
type ReportConfig struct {
	// PageSize is the page size used when pulling full source row-sets.
	PageSize int `koanf:"page_size" validate:"gt=0"`

	// TrendWindow caps trend series at the most recent N day buckets.
	TrendWindow int `koanf:"trend_window" validate:"gt=0"`

	// TopN caps ranking lists.
	TopN int `koanf:"top_n" validate:"gt=0"`

	// PartialRowLimit is the rendered-row cap in PARTIAL display mode.
	PartialRowLimit int `koanf:"partial_row_limit" validate:"gt=0"`
}

// LoggingConfig configures the logging package.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Tenant: "default",
		API: APIConfig{
			BaseURL:       "http://localhost:8080/api",
			Timeout:       30 * time.Second,
			RatePerSecond: 10,
			RateBurst:     20,
		},
		Store: StoreConfig{
			Path:     "data/paddock",
			InMemory: false,
		},
		Cache: CacheConfig{
			MaxEntries:    5000,
			ListTTL:       24 * time.Hour,
			SchemaTTL:     72 * time.Hour,
			ReportTTL:     24 * time.Hour,
			DashboardTTL:  6 * time.Hour,
			SweepInterval: time.Hour,
			SweepMaxAge:   7 * 24 * time.Hour,
		},
		Report: ReportConfig{
			PageSize:        1000,
			TrendWindow:     14,
			TopN:            5,
			PartialRowLimit: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration's struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
