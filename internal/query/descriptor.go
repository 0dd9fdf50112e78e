// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package query defines the query descriptor that identifies a paginated
// read and its deterministic cache-key serialization.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// DefaultPageSize is used when a descriptor leaves PageSize unset.
const DefaultPageSize = 25

// Descriptor is the full set of parameters identifying one paginated read:
// entity scope, pagination, sort, free-text search, and field filters.
// Two semantically equal descriptors always produce the same Key regardless
// of filter-map insertion order.
type Descriptor struct {
	// Scope is the entity table being queried (e.g. "batches").
	Scope string

	// Page is 1-indexed; Normalize clamps zero to 1.
	Page     int
	PageSize int

	Search  string
	SortBy  string
	SortDir Direction

	// Filters maps field name to exact-match value.
	Filters map[string]string
}

// Normalize returns a copy with pagination defaults applied.
func (d Descriptor) Normalize() Descriptor {
	if d.Page < 1 {
		d.Page = 1
	}
	if d.PageSize < 1 {
		d.PageSize = DefaultPageSize
	}
	if d.SortDir != Descending {
		d.SortDir = Ascending
	}
	return d
}

// WithFilter returns a copy of the descriptor with filters[field]=value
// merged in and the page reset to 1. The receiver's filter map is not
// mutated.
func (d Descriptor) WithFilter(field, value string) Descriptor {
	merged := make(map[string]string, len(d.Filters)+1)
	for k, v := range d.Filters {
		merged[k] = v
	}
	merged[field] = value

	d.Filters = merged
	d.Page = 1
	return d
}

// Key serializes the descriptor into its canonical cache key, namespaced by
// the acting tenant so one farm's cached rows can never be served to
// another. Filter keys are sorted before serialization; the key is a pure
// function of the descriptor's semantic content.
func (d Descriptor) Key(tenant string) string {
	d = d.Normalize()

	var b strings.Builder
	b.WriteString("records:")
	b.WriteString(url.QueryEscape(tenant))
	b.WriteByte(':')
	b.WriteString(url.QueryEscape(d.Scope))
	b.WriteString(":p")
	b.WriteString(strconv.Itoa(d.Page))
	b.WriteString(":n")
	b.WriteString(strconv.Itoa(d.PageSize))

	if d.SortBy != "" {
		fmt.Fprintf(&b, ":sort=%s.%s", url.QueryEscape(d.SortBy), d.SortDir)
	}
	if d.Search != "" {
		b.WriteString(":q=")
		b.WriteString(url.QueryEscape(d.Search))
	}

	if len(d.Filters) > 0 {
		fields := make([]string, 0, len(d.Filters))
		for field := range d.Filters {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		b.WriteString(":f=")
		for i, field := range fields {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(field))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(d.Filters[field]))
		}
	}

	return b.String()
}

// Values encodes the descriptor as the records endpoint's query parameters.
// Filters become filter_<field>=<value> pairs.
func (d Descriptor) Values(module string) url.Values {
	d = d.Normalize()

	v := url.Values{}
	v.Set("module", module)
	v.Set("table", d.Scope)
	v.Set("page", strconv.Itoa(d.Page))
	v.Set("page_size", strconv.Itoa(d.PageSize))

	if d.Search != "" {
		v.Set("search", d.Search)
	}
	if d.SortBy != "" {
		v.Set("sort_by", d.SortBy)
		v.Set("sort_dir", string(d.SortDir))
	}
	for field, value := range d.Filters {
		v.Set("filter_"+field, value)
	}

	return v
}
