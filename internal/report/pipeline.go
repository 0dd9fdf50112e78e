// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/paddockhq/paddock/internal/api"
	"github.com/paddockhq/paddock/internal/fetch"
	"github.com/paddockhq/paddock/internal/logging"
	"github.com/paddockhq/paddock/internal/models"
	"github.com/paddockhq/paddock/internal/query"
)

// DefaultTTL is how old a cached source row-set may be and still feed a
// report when the remote is unreachable.
const DefaultTTL = 24 * time.Hour

// DefaultPageSize is the page size used when pulling source row-sets. Report
// sources are pulled in one large page; farms at this scale fit.
const DefaultPageSize = 1000

// DefaultPartialRows is how many rows per source PARTIAL mode renders.
const DefaultPartialRows = 5

// source names a report input table and its designated foreign-key column.
type source struct {
	table string
	fk    string
}

// reportSources is the fixed fan-out set. Batch headers key on their own
// primary key; every other table references a batch.
var reportSources = []source{
	{table: "batches", fk: "id"},
	{table: "daily_logs", fk: "batch_id"},
	{table: "feed_logs", fk: "batch_id"},
	{table: "health_records", fk: "batch_id"},
	{table: "harvests", fk: "batch_id"},
}

// SourceSet is one source's scoped subset with provenance.
type SourceSet struct {
	Table  string
	Rows   []models.RecordRow
	Source fetch.Source
	Stale  bool
}

// Report is the result of one pipeline run.
type Report struct {
	Mode    Mode
	KPIs    KPIs
	Sources map[string]SourceSet

	MortalityTrend  []TrendBucket
	FeedTrend       []TrendBucket
	TopCauses       []Ranked
	TopBatchProfit  []Ranked

	// Rendered holds the rows actually displayed per source. Under PARTIAL
	// mode they are truncated; the aggregates above are never affected.
	Rendered map[string][]models.RecordRow

	// Stale is true when any source was served from cache.
	Stale bool
}

// Options tunes a pipeline. Zero values select the defaults.
type Options struct {
	TTL         time.Duration
	PageSize    int
	TrendWindow int
	TopN        int
	PartialRows int
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.TrendWindow <= 0 {
		o.TrendWindow = DefaultTrendWindow
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.PartialRows <= 0 {
		o.PartialRows = DefaultPartialRows
	}
	return o
}

// Pipeline fetches the report source tables concurrently through the
// cache-through orchestrator and reduces them into a Report.
type Pipeline struct {
	api    api.RecordsAPI
	orch   *fetch.Orchestrator
	tenant string
	module string
	opts   Options
}

// NewPipeline creates a pipeline for one module.
func NewPipeline(client api.RecordsAPI, orch *fetch.Orchestrator, tenant, module string, opts Options) *Pipeline {
	return &Pipeline{
		api:    client,
		orch:   orch,
		tenant: tenant,
		module: module,
		opts:   opts.withDefaults(),
	}
}

// Run fetches every source table concurrently, scopes each row-set by the
// filter state, and reduces the scoped subsets. A source that cannot be
// served remotely or from cache fails the whole run: a report silently
// missing one of its inputs would present wrong totals as right ones.
func (p *Pipeline) Run(ctx context.Context, fs FilterState) (*Report, error) {
	if fs.Mode == "" {
		fs.Mode = ModeFull
	}

	type outcome struct {
		set SourceSet
		err error
	}
	outcomes := make([]outcome, len(reportSources))

	var wg sync.WaitGroup
	for i, src := range reportSources {
		wg.Add(1)
		go func(i int, src source) {
			defer wg.Done()
			set, err := p.fetchSource(ctx, src)
			outcomes[i] = outcome{set: set, err: err}
		}(i, src)
	}
	wg.Wait()

	sets := make(map[string]SourceSet, len(reportSources))
	stale := false
	for i, src := range reportSources {
		if outcomes[i].err != nil {
			return nil, fmt.Errorf("report source %s: %w", src.table, outcomes[i].err)
		}
		set := outcomes[i].set
		set.Rows = Scope(set.Rows, src.fk, fs)
		sets[src.table] = set
		if set.Stale {
			stale = true
		}
	}

	s := sourceSets{
		batches:       sets["batches"].Rows,
		dailyLogs:     sets["daily_logs"].Rows,
		feedLogs:      sets["feed_logs"].Rows,
		healthRecords: sets["health_records"].Rows,
		harvests:      sets["harvests"].Rows,
	}

	rep := &Report{
		Mode:           fs.Mode,
		KPIs:           computeKPIs(s, fs),
		Sources:        sets,
		MortalityTrend: Trend(s.dailyLogs, "mortality_count", p.opts.TrendWindow),
		FeedTrend:      Trend(s.feedLogs, "feed_kg", p.opts.TrendWindow),
		TopCauses:      TopCauses(s.dailyLogs, p.opts.TopN),
		TopBatchProfit: TopBatchProfit(s, p.opts.TopN),
		Rendered:       make(map[string][]models.RecordRow, len(sets)),
		Stale:          stale,
	}

	for table, set := range sets {
		rows := set.Rows
		if fs.Mode == ModePartial && len(rows) > p.opts.PartialRows {
			rows = rows[:p.opts.PartialRows]
		}
		rep.Rendered[table] = rows
	}

	if stale {
		logging.Warn().Str("module", p.module).Msg("report built from one or more cached source snapshots")
	}
	return rep, nil
}

// fetchSource pulls one source table's row-set through the orchestrator.
func (p *Pipeline) fetchSource(ctx context.Context, src source) (SourceSet, error) {
	d := query.Descriptor{Scope: src.table, Page: 1, PageSize: p.opts.PageSize}

	res, err := p.orch.Resolve(ctx, d.Key(p.tenant), p.opts.TTL, func(ctx context.Context) (json.RawMessage, error) {
		return p.api.Records(ctx, p.module, d)
	})
	if err != nil {
		return SourceSet{}, err
	}

	envelope, err := fetch.Decode[models.RecordsEnvelope](res)
	if err != nil {
		return SourceSet{}, fmt.Errorf("decode rows: %w", err)
	}

	return SourceSet{
		Table:  src.table,
		Rows:   envelope.Rows,
		Source: res.Source,
		Stale:  res.Stale,
	}, nil
}
