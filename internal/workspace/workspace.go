// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package workspace is the per-table record surface: paginated, cache-backed
// listing with race-safe refresh, and schema-driven create/update/delete.
// One Workspace serves one module/table pair and is generic over whatever
// schema the server supplies for it.
package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/paddockhq/paddock/internal/api"
	"github.com/paddockhq/paddock/internal/fetch"
	"github.com/paddockhq/paddock/internal/logging"
	"github.com/paddockhq/paddock/internal/models"
	"github.com/paddockhq/paddock/internal/query"
	"github.com/paddockhq/paddock/internal/schema"
)

// DefaultListTTL is how old a cached record page may be and still be served
// when the remote is unreachable.
const DefaultListTTL = 24 * time.Hour

const (
	// MaxQuickFilterFields caps how many fields offer one-tap filters.
	MaxQuickFilterFields = 3

	// MaxQuickFilterValues caps the distinct values a quick filter offers.
	// Values come from the current page only, so this is a rendering bound,
	// not a cardinality scan.
	MaxQuickFilterValues = 120
)

// Page is one resolved page of records with provenance. Stale pages must be
// rendered with a cached-data badge.
type Page struct {
	Rows       []models.RecordRow
	Page       int
	TotalPages int
	TotalCount int
	Source     fetch.Source
	Stale      bool
	Descriptor query.Descriptor
}

// WriteStatus distinguishes a committed write from a queued one.
type WriteStatus int

const (
	// WriteCommitted means the authoritative store applied the write.
	WriteCommitted WriteStatus = iota

	// WriteQueued means the API accepted the write but deferred it. The
	// caller must not present this as an unqualified success, and must not
	// expect the row to appear in the next list.
	WriteQueued
)

// WriteResult is the outcome of a workspace write.
type WriteResult struct {
	Status  WriteStatus
	Message string
	Row     models.RecordRow
}

// QuickFilter is one field's one-tap filter values, drawn from the rows of
// the current page.
type QuickFilter struct {
	Field  string
	Values []string
}

// Workspace is the record surface for one module/table pair.
//
// Thread safety: List, Current, and ApplyQuickFilter may be called
// concurrently; the sequencer guarantees the committed page always reflects
// the most recently requested descriptor.
type Workspace struct {
	api     api.RecordsAPI
	orch    *fetch.Orchestrator
	reg     *schema.Registry
	tenant  string
	module  string
	table   string
	listTTL time.Duration

	seq     fetch.Sequencer
	current atomic.Pointer[Page]
}

// New creates a workspace for one table. listTTL <= 0 selects
// DefaultListTTL.
func New(client api.RecordsAPI, orch *fetch.Orchestrator, reg *schema.Registry, tenant, module, table string, listTTL time.Duration) *Workspace {
	if listTTL <= 0 {
		listTTL = DefaultListTTL
	}
	return &Workspace{
		api:     client,
		orch:    orch,
		reg:     reg,
		tenant:  tenant,
		module:  module,
		table:   table,
		listTTL: listTTL,
	}
}

// Table returns the table this workspace serves.
func (w *Workspace) Table() string { return w.table }

// Meta returns the table's schema.
func (w *Workspace) Meta(ctx context.Context) (models.EntityMetadata, error) {
	return w.reg.GetTable(ctx, w.module, w.table)
}

// List resolves one page of records for the descriptor. The page is served
// remotely when possible and from the cache within the TTL otherwise.
//
// Overlapping calls race-resolve by issue order: if a newer List is issued
// while this one is in flight, this one's response is discarded and
// fetch.ErrSuperseded is returned. The caller drops it silently.
func (w *Workspace) List(ctx context.Context, d query.Descriptor) (*Page, error) {
	d.Scope = w.table
	d = d.Normalize()

	token := w.seq.Begin()

	res, err := w.orch.Resolve(ctx, d.Key(w.tenant), w.listTTL, func(ctx context.Context) (json.RawMessage, error) {
		return w.api.Records(ctx, w.module, d)
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", w.table, err)
	}

	envelope, err := fetch.Decode[models.RecordsEnvelope](res)
	if err != nil {
		return nil, fmt.Errorf("decode %s page: %w", w.table, err)
	}

	page := &Page{
		Rows:       envelope.Rows,
		Page:       envelope.Page,
		TotalPages: envelope.TotalPages,
		TotalCount: envelope.TotalCount,
		Source:     res.Source,
		Stale:      res.Stale,
		Descriptor: d,
	}

	// Publish under the sequencer's lock so the token check and the store
	// cannot interleave with a newer commit.
	if !w.seq.CommitDo(token, func() { w.current.Store(page) }) {
		logging.Debug().
			Str("table", w.table).
			Int("page", d.Page).
			Msg("discarding superseded record page")
		return nil, fetch.ErrSuperseded
	}

	return page, nil
}

// Current returns the last committed page, or nil before the first List.
func (w *Workspace) Current() *Page {
	return w.current.Load()
}

// Create sends a new record. Input keys that are not editable fields of the
// schema (read-only fields, the primary key, unknown names) are stripped
// before the payload is built.
func (w *Workspace) Create(ctx context.Context, input map[string]any) (WriteResult, error) {
	meta, err := w.Meta(ctx)
	if err != nil {
		return WriteResult{}, err
	}

	receipt, err := w.api.CreateRecord(ctx, w.module, w.table, writablePayload(meta, input))
	if err != nil {
		return WriteResult{}, fmt.Errorf("create %s record: %w", w.table, err)
	}
	return resultFromReceipt(receipt), nil
}

// Update sends changed fields for the record with the given primary-key
// value. Read-only and unknown keys are stripped as in Create.
func (w *Workspace) Update(ctx context.Context, id string, input map[string]any) (WriteResult, error) {
	meta, err := w.Meta(ctx)
	if err != nil {
		return WriteResult{}, err
	}

	receipt, err := w.api.UpdateRecord(ctx, w.module, w.table, id, writablePayload(meta, input))
	if err != nil {
		return WriteResult{}, fmt.Errorf("update %s %s: %w", w.table, id, err)
	}
	return resultFromReceipt(receipt), nil
}

// Delete removes the record with the given primary-key value.
func (w *Workspace) Delete(ctx context.Context, id string) (WriteResult, error) {
	receipt, err := w.api.DeleteRecord(ctx, w.module, w.table, id)
	if err != nil {
		return WriteResult{}, fmt.Errorf("delete %s %s: %w", w.table, id, err)
	}
	return resultFromReceipt(receipt), nil
}

// ApplyQuickFilter merges one filter into the current descriptor and
// re-lists from page 1. With no page listed yet, it filters a fresh default
// descriptor.
func (w *Workspace) ApplyQuickFilter(ctx context.Context, field, value string) (*Page, error) {
	d := query.Descriptor{}
	if cur := w.Current(); cur != nil {
		d = cur.Descriptor
	}
	return w.List(ctx, d.WithFilter(field, value))
}

// QuickFilters derives one-tap filters from the current page. Closed-set
// fields (enums, Yes/No) are preferred; remaining slots go to other fields
// in schema order. At most MaxQuickFilterFields fields, each capped at
// MaxQuickFilterValues distinct values drawn from the page's rows.
func (w *Workspace) QuickFilters(ctx context.Context) ([]QuickFilter, error) {
	meta, err := w.Meta(ctx)
	if err != nil {
		return nil, err
	}

	page := w.Current()
	if page == nil || len(page.Rows) == 0 {
		return nil, nil
	}

	var candidates []models.Field
	for _, f := range meta.Fields {
		if f.Name == meta.PrimaryKey {
			continue
		}
		if kind := schema.KindOf(f); kind == schema.InputSelect || kind == schema.InputYesNo {
			candidates = append(candidates, f)
		}
	}
	for _, f := range meta.Fields {
		if len(candidates) >= MaxQuickFilterFields {
			break
		}
		if f.Name == meta.PrimaryKey {
			continue
		}
		if kind := schema.KindOf(f); kind == schema.InputText {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) > MaxQuickFilterFields {
		candidates = candidates[:MaxQuickFilterFields]
	}

	var out []QuickFilter
	for _, f := range candidates {
		values := distinctValues(page.Rows, f.Name, MaxQuickFilterValues)
		if len(values) == 0 {
			continue
		}
		out = append(out, QuickFilter{Field: f.Name, Values: values})
	}
	return out, nil
}

// writablePayload keeps only the input keys that name editable schema
// fields.
func writablePayload(meta models.EntityMetadata, input map[string]any) map[string]any {
	editable := make(map[string]bool)
	for _, f := range schema.EditableFields(meta) {
		editable[f.Name] = true
	}

	payload := make(map[string]any, len(input))
	for k, v := range input {
		if editable[k] {
			payload[k] = v
		}
	}
	return payload
}

func resultFromReceipt(receipt *models.WriteReceipt) WriteResult {
	status := WriteCommitted
	if receipt.Queued {
		status = WriteQueued
	}
	return WriteResult{Status: status, Message: receipt.Message, Row: receipt.Row}
}

func distinctValues(rows []models.RecordRow, field string, limit int) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		v := row.String(field)
		if v == "" {
			continue
		}
		seen[v] = true
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	if len(values) > limit {
		values = values[:limit]
	}
	return values
}
