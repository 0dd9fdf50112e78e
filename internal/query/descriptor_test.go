// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package query

import (
	"testing"
)

func TestDescriptor_KeyDeterministicUnderFilterOrder(t *testing.T) {
	d1 := Descriptor{
		Scope:   "batches",
		Page:    2,
		Filters: map[string]string{"a": "1", "b": "2"},
	}
	d2 := Descriptor{
		Scope:   "batches",
		Page:    2,
		Filters: map[string]string{"b": "2", "a": "1"},
	}

	if d1.Key("farm1") != d2.Key("farm1") {
		t.Errorf("keys differ for semantically equal descriptors:\n%s\n%s",
			d1.Key("farm1"), d2.Key("farm1"))
	}
}

func TestDescriptor_KeyDistinguishesSemanticDifferences(t *testing.T) {
	base := Descriptor{Scope: "batches", Page: 1, PageSize: 25}

	variants := []Descriptor{
		{Scope: "harvests", Page: 1, PageSize: 25},
		{Scope: "batches", Page: 2, PageSize: 25},
		{Scope: "batches", Page: 1, PageSize: 50},
		{Scope: "batches", Page: 1, PageSize: 25, Search: "rhode"},
		{Scope: "batches", Page: 1, PageSize: 25, SortBy: "start_date"},
		{Scope: "batches", Page: 1, PageSize: 25, SortBy: "start_date", SortDir: Descending},
		{Scope: "batches", Page: 1, PageSize: 25, Filters: map[string]string{"status": "active"}},
	}

	seen := map[string]bool{base.Key("farm1"): true}
	for i, d := range variants {
		key := d.Key("farm1")
		if seen[key] {
			t.Errorf("variant %d collides with a prior key: %s", i, key)
		}
		seen[key] = true
	}
}

func TestDescriptor_KeyNamespacedByTenant(t *testing.T) {
	d := Descriptor{Scope: "batches", Page: 1}

	if d.Key("farm1") == d.Key("farm2") {
		t.Error("keys for different tenants must never collide")
	}
}

func TestDescriptor_KeyNormalizesPagination(t *testing.T) {
	unset := Descriptor{Scope: "batches"}
	explicit := Descriptor{Scope: "batches", Page: 1, PageSize: DefaultPageSize}

	if unset.Key("farm1") != explicit.Key("farm1") {
		t.Error("zero pagination should serialize identically to the defaults")
	}
}

func TestDescriptor_KeyEscapesSeparators(t *testing.T) {
	// Filter values containing the key's own separators must not forge
	// another descriptor's key.
	tricky := Descriptor{
		Scope:   "batches",
		Filters: map[string]string{"note": "x:f=a&b=c"},
	}
	plain := Descriptor{
		Scope:   "batches",
		Filters: map[string]string{"note": "x", "f": "a", "b": "c"},
	}

	if tricky.Key("farm1") == plain.Key("farm1") {
		t.Error("separator characters in values must be escaped")
	}
}

func TestDescriptor_WithFilterResetsPageAndCopies(t *testing.T) {
	d := Descriptor{
		Scope:   "batches",
		Page:    4,
		Filters: map[string]string{"status": "active"},
	}

	merged := d.WithFilter("breed", "ross308")

	if merged.Page != 1 {
		t.Errorf("merged page = %d, want 1", merged.Page)
	}
	if merged.Filters["breed"] != "ross308" || merged.Filters["status"] != "active" {
		t.Errorf("merged filters = %v", merged.Filters)
	}
	if _, ok := d.Filters["breed"]; ok {
		t.Error("WithFilter must not mutate the receiver's filter map")
	}
	if d.Page != 4 {
		t.Error("WithFilter must not mutate the receiver")
	}
}

func TestDescriptor_Values(t *testing.T) {
	d := Descriptor{
		Scope:    "daily_logs",
		Page:     3,
		PageSize: 50,
		Search:   "coop",
		SortBy:   "log_date",
		SortDir:  Descending,
		Filters:  map[string]string{"batch_id": "7"},
	}

	v := d.Values("poultry")

	for key, want := range map[string]string{
		"module":          "poultry",
		"table":           "daily_logs",
		"page":            "3",
		"page_size":       "50",
		"search":          "coop",
		"sort_by":         "log_date",
		"sort_dir":        "DESC",
		"filter_batch_id": "7",
	} {
		if got := v.Get(key); got != want {
			t.Errorf("Values()[%s] = %q, want %q", key, got, want)
		}
	}
}
