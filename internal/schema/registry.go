// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package schema holds the entity metadata registry and the pure projection
// rules that turn server-supplied schemas into columns, editable fields,
// and typed input policies. Nothing here is entity-specific: the whole
// record surface is driven by the metadata the API returns.
package schema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/paddockhq/paddock/internal/api"
	"github.com/paddockhq/paddock/internal/fetch"
	"github.com/paddockhq/paddock/internal/models"
)

// DefaultTTL is the schema staleness window. Schemas change rarely, so a
// multi-day window keeps modules usable through long outages.
const DefaultTTL = 72 * time.Hour

// ErrTableNotFound is returned when a module's schema has no such table.
var ErrTableNotFound = errors.New("schema: table not found in module")

// Registry fetches and caches per-module entity metadata through the
// cache-through orchestrator.
type Registry struct {
	api    api.RecordsAPI
	orch   *fetch.Orchestrator
	tenant string
	ttl    time.Duration
}

// NewRegistry creates a registry. ttl <= 0 selects DefaultTTL.
func NewRegistry(client api.RecordsAPI, orch *fetch.Orchestrator, tenant string, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{api: client, orch: orch, tenant: tenant, ttl: ttl}
}

// GetSchema returns the entity schemas for a module, served remotely when
// possible and from a cached snapshot within the TTL otherwise.
func (r *Registry) GetSchema(ctx context.Context, module string) ([]models.EntityMetadata, error) {
	key := schemaKey(r.tenant, module)

	res, err := r.orch.Resolve(ctx, key, r.ttl, func(ctx context.Context) (json.RawMessage, error) {
		return r.api.Entities(ctx, module)
	})
	if err != nil {
		return nil, fmt.Errorf("load schema for module %s: %w", module, err)
	}

	envelope, err := fetch.Decode[models.EntitiesEnvelope](res)
	if err != nil {
		return nil, fmt.Errorf("decode schema for module %s: %w", module, err)
	}

	return envelope.Entities, nil
}

// schemaKey builds the cache key for a module's schemas. Segments are
// escaped so a tenant or module containing the separator cannot collide
// with another pair.
func schemaKey(tenant, module string) string {
	return fmt.Sprintf("entities:%s:%s", url.QueryEscape(tenant), url.QueryEscape(module))
}

// GetTable returns one table's schema from a module.
func (r *Registry) GetTable(ctx context.Context, module, table string) (models.EntityMetadata, error) {
	metas, err := r.GetSchema(ctx, module)
	if err != nil {
		return models.EntityMetadata{}, err
	}
	for _, meta := range metas {
		if meta.Table == table {
			return meta, nil
		}
	}
	return models.EntityMetadata{}, fmt.Errorf("%w: %s.%s", ErrTableNotFound, module, table)
}
