// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package report implements the multi-source report aggregation pipeline:
// concurrent cache-backed fetches of related entity row-sets, pure scoping
// and reduction over them, and display-mode handling that never changes the
// underlying numbers.
package report

import (
	"strings"
	"time"

	"github.com/paddockhq/paddock/internal/models"
)

// Mode selects how much of the scoped subsets is rendered. It is a display
// affordance only: aggregates are computed from the full scoped subsets
// under either mode.
type Mode string

const (
	ModeFull    Mode = "FULL"
	ModePartial Mode = "PARTIAL"
)

// FilterState is the user-selected scope of a report run.
type FilterState struct {
	Mode Mode

	// From and To bound the date range, inclusive. A zero time leaves that
	// end unbounded.
	From time.Time
	To   time.Time

	// SelectionIDs restricts each source to rows whose designated
	// foreign-key column matches one of these batch IDs. Empty means no
	// restriction.
	SelectionIDs []string

	// IncludeVaccineCost and IncludeLaborCost fold the optional cost
	// components into the adjusted cost. The base figures are always
	// reported alongside.
	IncludeVaccineCost bool
	IncludeLaborCost   bool
}

// dateFieldOrder is the fixed preference order for a row's primary date
// field. The first field present with a parseable value wins.
var dateFieldOrder = []string{
	"log_date", "date", "entry_date", "purchase_date", "harvest_date", "created_at",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseDate parses the date formats the API emits.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rowDate returns the row's primary date per the preference order, or
// ok=false when no field yields a parseable value.
func rowDate(row models.RecordRow) (time.Time, bool) {
	for _, field := range dateFieldOrder {
		if _, present := row[field]; !present {
			continue
		}
		if t, ok := parseDate(row.String(field)); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// inSelection reports whether the row's foreign-key value is in ids. An
// empty set passes every row.
func inSelection(row models.RecordRow, fkField string, ids map[string]bool) bool {
	if len(ids) == 0 {
		return true
	}
	return ids[row.String(fkField)]
}

// inDateRange applies the date predicate. A row with no parseable date
// passes: absence of a date must never silently remove data from a report.
func inDateRange(row models.RecordRow, from, to time.Time) bool {
	t, ok := rowDate(row)
	if !ok {
		return true
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// Scope filters one source row-set by selection membership on fkField and
// the filter state's date range.
func Scope(rows []models.RecordRow, fkField string, fs FilterState) []models.RecordRow {
	ids := make(map[string]bool, len(fs.SelectionIDs))
	for _, id := range fs.SelectionIDs {
		ids[id] = true
	}

	var out []models.RecordRow
	for _, row := range rows {
		if !inSelection(row, fkField, ids) {
			continue
		}
		if !inDateRange(row, fs.From, fs.To) {
			continue
		}
		out = append(out, row)
	}
	return out
}
