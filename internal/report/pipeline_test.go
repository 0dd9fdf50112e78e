// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package report

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/paddockhq/paddock/internal/cache"
	"github.com/paddockhq/paddock/internal/fetch"
	"github.com/paddockhq/paddock/internal/kvstore"
	"github.com/paddockhq/paddock/internal/models"
	"github.com/paddockhq/paddock/internal/query"
)

// tableAPI serves canned row-sets per table and can fail selected tables.
type tableAPI struct {
	mu      sync.Mutex
	rows    map[string][]models.RecordRow
	fail    map[string]bool
	fetched []string
}

func (a *tableAPI) Records(ctx context.Context, module string, d query.Descriptor) (json.RawMessage, error) {
	a.mu.Lock()
	a.fetched = append(a.fetched, d.Scope)
	failing := a.fail[d.Scope]
	rows := a.rows[d.Scope]
	a.mu.Unlock()

	if failing {
		return nil, errors.New("connection refused")
	}
	return json.Marshal(models.RecordsEnvelope{
		OK: true, Rows: rows, Page: 1, TotalPages: 1, TotalCount: len(rows),
	})
}

func (a *tableAPI) Entities(ctx context.Context, module string) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (a *tableAPI) CreateRecord(ctx context.Context, module, table string, record map[string]any) (*models.WriteReceipt, error) {
	return nil, errors.New("not implemented")
}

func (a *tableAPI) UpdateRecord(ctx context.Context, module, table, id string, record map[string]any) (*models.WriteReceipt, error) {
	return nil, errors.New("not implemented")
}

func (a *tableAPI) DeleteRecord(ctx context.Context, module, table, id string) (*models.WriteReceipt, error) {
	return nil, errors.New("not implemented")
}

func reportRows() map[string][]models.RecordRow {
	return map[string][]models.RecordRow{
		"batches": {
			{"id": float64(1), "batch_name": "B-001", "quantity": float64(100), "unit_cost": float64(2), "purchase_date": "2024-01-02"},
			{"id": float64(2), "batch_name": "B-002", "quantity": float64(200), "unit_cost": float64(1.5), "purchase_date": "2024-01-03"},
			{"id": float64(3), "batch_name": "B-003", "quantity": float64(150), "unit_cost": float64(2), "purchase_date": "2024-01-04"},
		},
		"daily_logs": {
			{"batch_id": float64(1), "log_date": "2024-01-10", "mortality_count": float64(4), "mortality_cause": "coccidiosis"},
			{"batch_id": float64(2), "log_date": "2024-01-11", "mortality_count": float64(6), "mortality_cause": "heat stress"},
			{"batch_id": float64(1), "log_date": nil, "mortality_count": float64(1), "mortality_cause": "unknown"},
			{"batch_id": float64(3), "log_date": "2024-02-15", "mortality_count": float64(9), "mortality_cause": "coccidiosis"},
		},
		"feed_logs": {
			{"batch_id": float64(1), "log_date": "2024-01-10", "feed_kg": float64(50), "feed_cost": float64(25)},
			{"batch_id": float64(2), "log_date": "2024-01-12", "feed_kg": float64(80), "feed_cost": float64(40)},
			{"batch_id": float64(1), "log_date": nil, "feed_kg": float64(7), "feed_cost": float64(3)},
			{"batch_id": float64(3), "log_date": "2024-01-20", "feed_kg": float64(60), "feed_cost": float64(30)},
		},
		"health_records": {
			{"batch_id": float64(1), "entry_date": "2024-01-05", "vaccine_cost": float64(15)},
		},
		"harvests": {
			{"batch_id": float64(1), "harvest_date": "2024-01-25", "revenue": float64(600), "weight_kg": float64(120)},
			{"batch_id": float64(3), "harvest_date": "2024-01-28", "revenue": float64(700), "weight_kg": float64(150)},
		},
	}
}

func newTestPipeline(t *testing.T, a *tableAPI) *Pipeline {
	t.Helper()
	orch := fetch.NewOrchestrator(cache.New(kvstore.NewMemoryStore()))
	return NewPipeline(a, orch, "greenacres", "poultry", Options{})
}

func janRange() FilterState {
	return FilterState{From: day("2024-01-01"), To: day("2024-01-31")}
}

func TestRunFetchesAllSources(t *testing.T) {
	a := &tableAPI{rows: reportRows()}
	p := newTestPipeline(t, a)

	rep, err := p.Run(context.Background(), FilterState{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Stale {
		t.Error("Run() reported stale with a healthy remote")
	}
	if len(a.fetched) != len(reportSources) {
		t.Errorf("Run() fetched %d sources, want %d", len(a.fetched), len(reportSources))
	}
	for _, src := range reportSources {
		set, ok := rep.Sources[src.table]
		if !ok {
			t.Errorf("Run() missing source %s", src.table)
			continue
		}
		if set.Source != fetch.SourceRemote || set.Stale {
			t.Errorf("source %s provenance = %s/%v, want remote/false", src.table, set.Source, set.Stale)
		}
	}
}

// Three batches, selection {1,3}, January range: a batch-2 in-range row is
// excluded, a batch-1 null-date row is included, and feed totals sum over
// exactly the included rows.
func TestRunSelectionAndDateScoping(t *testing.T) {
	a := &tableAPI{rows: reportRows()}
	p := newTestPipeline(t, a)

	fs := janRange()
	fs.SelectionIDs = []string{"1", "3"}

	rep, err := p.Run(context.Background(), fs)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// feed_logs: batch 1 in-range (50) + batch 1 null-date (7) + batch 3
	// in-range (60); batch 2 excluded by selection.
	if !almostEqual(rep.KPIs.FeedKg, 117) {
		t.Errorf("FeedKg = %v, want 117", rep.KPIs.FeedKg)
	}
	for _, row := range rep.Sources["feed_logs"].Rows {
		if row.String("batch_id") == "2" {
			t.Error("feed_logs kept a batch-2 row despite the selection")
		}
	}

	// daily_logs: batch 2 excluded; batch 3's February row excluded by the
	// date range; batch 1's null-date row included.
	if !almostEqual(rep.KPIs.MortalityCount, 5) {
		t.Errorf("MortalityCount = %v, want 5", rep.KPIs.MortalityCount)
	}
}

// PARTIAL truncates only the rendered rows; every aggregate matches FULL.
func TestRunModeInvariance(t *testing.T) {
	a := &tableAPI{rows: reportRows()}
	p := newTestPipeline(t, a)

	full, err := p.Run(context.Background(), janRange())
	if err != nil {
		t.Fatalf("Run(FULL) error = %v", err)
	}

	fs := janRange()
	fs.Mode = ModePartial
	partial, err := p.Run(context.Background(), fs)
	if err != nil {
		t.Fatalf("Run(PARTIAL) error = %v", err)
	}

	if !almostEqual(full.KPIs.Revenue, partial.KPIs.Revenue) {
		t.Errorf("Revenue differs by mode: %v vs %v", full.KPIs.Revenue, partial.KPIs.Revenue)
	}
	if !almostEqual(full.KPIs.ProfitBase, partial.KPIs.ProfitBase) {
		t.Errorf("ProfitBase differs by mode: %v vs %v", full.KPIs.ProfitBase, partial.KPIs.ProfitBase)
	}
	if !almostEqual(full.KPIs.FeedKg, partial.KPIs.FeedKg) {
		t.Errorf("FeedKg differs by mode: %v vs %v", full.KPIs.FeedKg, partial.KPIs.FeedKg)
	}

	for table, rows := range partial.Rendered {
		if len(rows) > DefaultPartialRows {
			t.Errorf("PARTIAL rendered %d rows for %s, cap is %d", len(rows), table, DefaultPartialRows)
		}
		if len(partial.Sources[table].Rows) != len(full.Sources[table].Rows) {
			t.Errorf("PARTIAL changed the scoped subset for %s", table)
		}
	}
}

func TestRunServesStaleSourceFromCache(t *testing.T) {
	a := &tableAPI{rows: reportRows(), fail: map[string]bool{}}
	p := newTestPipeline(t, a)

	if _, err := p.Run(context.Background(), FilterState{}); err != nil {
		t.Fatalf("warm-up Run() error = %v", err)
	}

	a.mu.Lock()
	a.fail["harvests"] = true
	a.mu.Unlock()

	rep, err := p.Run(context.Background(), FilterState{})
	if err != nil {
		t.Fatalf("Run() with one dead source error = %v", err)
	}
	if !rep.Stale {
		t.Error("Run() not marked stale with a cache-served source")
	}
	if set := rep.Sources["harvests"]; set.Source != fetch.SourceCache || !set.Stale {
		t.Errorf("harvests provenance = %s/%v, want cache/true", set.Source, set.Stale)
	}
	if set := rep.Sources["batches"]; set.Source != fetch.SourceRemote {
		t.Errorf("batches provenance = %s, want remote", set.Source)
	}
	if !almostEqual(rep.KPIs.Revenue, 1300) {
		t.Errorf("Revenue from cached harvests = %v, want 1300", rep.KPIs.Revenue)
	}
}

func TestRunFailsWhenSourceUnavailable(t *testing.T) {
	a := &tableAPI{rows: reportRows(), fail: map[string]bool{"daily_logs": true}}
	p := newTestPipeline(t, a)

	_, err := p.Run(context.Background(), FilterState{})
	if err == nil {
		t.Fatal("Run() succeeded with an unavailable, uncached source")
	}
}
