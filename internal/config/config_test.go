// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty directory so no stray config file is picked up.
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tenant != "default" {
		t.Errorf("Tenant = %q", cfg.Tenant)
	}
	if cfg.Cache.SchemaTTL != 72*time.Hour {
		t.Errorf("SchemaTTL = %v, want 72h", cfg.Cache.SchemaTTL)
	}
	if cfg.Cache.DashboardTTL != 6*time.Hour {
		t.Errorf("DashboardTTL = %v, want 6h", cfg.Cache.DashboardTTL)
	}
	if cfg.Report.TrendWindow != 14 {
		t.Errorf("TrendWindow = %d, want 14", cfg.Report.TrendWindow)
	}
	if cfg.API.RatePerSecond <= 0 {
		t.Errorf("RatePerSecond = %v", cfg.API.RatePerSecond)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PADDOCK_TENANT", "greenacre")
	t.Setenv("PADDOCK_API_BASE_URL", "https://farm.example.com/api")
	t.Setenv("PADDOCK_CACHE_MAX_ENTRIES", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tenant != "greenacre" {
		t.Errorf("Tenant = %q, want greenacre", cfg.Tenant)
	}
	if cfg.API.BaseURL != "https://farm.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Cache.MaxEntries != 100 {
		t.Errorf("MaxEntries = %d, want 100", cfg.Cache.MaxEntries)
	}
}

func TestLoad_FileOverridesDefaultsEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := []byte("tenant: filefarm\napi:\n  timeout: 5s\n")
	if err := os.WriteFile(filepath.Join(dir, "paddock.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PADDOCK_TENANT", "envfarm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tenant != "envfarm" {
		t.Errorf("env should beat file: Tenant = %q", cfg.Tenant)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("file should beat defaults: Timeout = %v", cfg.API.Timeout)
	}
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PADDOCK_API_BASE_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Error("expected validation error for malformed base URL")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PADDOCK_TENANT", "tenant"},
		{"PADDOCK_API_BASE_URL", "api.base_url"},
		{"PADDOCK_CACHE_SWEEP_INTERVAL", "cache.sweep_interval"},
		{"PADDOCK_REPORT_TOP_N", "report.top_n"},
		{"PADDOCK_LOGGING_LEVEL", "logging.level"},
		{"PADDOCK_STORE_IN_MEMORY", "store.in_memory"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
