// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/paddockhq/paddock/internal/query"
	"github.com/paddockhq/paddock/internal/report"
	"github.com/paddockhq/paddock/internal/schema"
	"github.com/paddockhq/paddock/internal/workspace"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (a *app) cmdLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	token := fs.String("token", "", "bearer token for the farm-operations API")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("login: -token is required")
	}

	if err := a.sess.SetToken(*token); err != nil {
		return err
	}
	fmt.Println("token stored")
	return nil
}

func (a *app) cmdEntities(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("entities", flag.ContinueOnError)
	module := fs.String("module", "", "module key (e.g. poultry)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *module == "" {
		return fmt.Errorf("entities: -module is required")
	}

	metas, err := a.reg.GetSchema(ctx, *module)
	if err != nil {
		return err
	}

	for _, meta := range metas {
		fmt.Printf("%s (%s), key %s\n", meta.Table, meta.EntityLabel, meta.PrimaryKey)
		fmt.Printf("  columns: %s\n", strings.Join(schema.Columns(meta, nil), ", "))
		for _, f := range schema.EditableFields(meta) {
			kind := schema.KindOf(f)
			line := fmt.Sprintf("  %s: %s", f.Name, kind)
			if choices := schema.Choices(f); choices != nil {
				labels := make([]string, 0, len(choices))
				for _, c := range choices {
					labels = append(labels, c.Label)
				}
				line += " (" + strings.Join(labels, "|") + ")"
			}
			fmt.Println(line)
		}
	}
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	module := fs.String("module", "", "module key")
	table := fs.String("table", "", "entity table")
	page := fs.Int("page", 1, "1-indexed page")
	search := fs.String("search", "", "free-text search")
	sortBy := fs.String("sort", "", "sort field")
	desc := fs.Bool("desc", false, "sort descending")
	columns := fs.String("columns", "", "comma-separated display order (defaults to schema order)")
	var filters stringList
	fs.Var(&filters, "filter", "field=value filter, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *module == "" || *table == "" {
		return fmt.Errorf("list: -module and -table are required")
	}

	filterMap, err := parseFilters(filters)
	if err != nil {
		return err
	}

	ws := workspace.New(a.client, a.orch, a.reg, a.cfg.Tenant, *module, *table, a.cfg.Cache.ListTTL)

	d := query.Descriptor{Page: *page, Search: *search, SortBy: *sortBy, Filters: filterMap}
	if *desc {
		d.SortDir = query.Descending
	}

	result, err := ws.List(ctx, d)
	if err != nil {
		return err
	}

	meta, err := ws.Meta(ctx)
	if err != nil {
		return err
	}
	var displayOrder []string
	if *columns != "" {
		displayOrder = strings.Split(*columns, ",")
	}
	cols := schema.Columns(meta, displayOrder)

	fmt.Printf("%s page %d/%d, %d total%s\n",
		*table, result.Page, result.TotalPages, result.TotalCount, provenanceBadge(result.Stale))
	fmt.Println(strings.Join(cols, "\t"))
	for _, row := range result.Rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = row.String(col)
		}
		fmt.Println(strings.Join(values, "\t"))
	}
	return nil
}

func (a *app) cmdDashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	key := "dashboard:" + url.QueryEscape(a.cfg.Tenant)
	res, err := a.orch.Resolve(ctx, key, a.cfg.Cache.DashboardTTL,
		func(ctx context.Context) (json.RawMessage, error) {
			return a.client.Dashboard(ctx)
		})
	if err != nil {
		return err
	}

	var summary map[string]any
	if err := json.Unmarshal(res.Payload, &summary); err != nil {
		return fmt.Errorf("decode dashboard: %w", err)
	}
	delete(summary, "ok")
	delete(summary, "message")

	fmt.Printf("dashboard%s\n", provenanceBadge(res.Stale))
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, summary[k])
	}
	return nil
}

func (a *app) cmdReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	module := fs.String("module", "", "module key")
	from := fs.String("from", "", "range start, YYYY-MM-DD")
	to := fs.String("to", "", "range end, YYYY-MM-DD")
	ids := fs.String("ids", "", "comma-separated batch IDs")
	partial := fs.Bool("partial", false, "truncate rendered rows (aggregates unaffected)")
	vaccine := fs.Bool("vaccine", false, "fold vaccine cost into adjusted cost")
	labor := fs.Bool("labor", false, "fold labor cost into adjusted cost")
	server := fs.String("server", "", "named server-rendered report instead of local aggregation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *module == "" {
		return fmt.Errorf("report: -module is required")
	}
	if *server != "" {
		return a.serverReport(ctx, *server, *module, *from, *to, *ids)
	}

	filterState := report.FilterState{
		IncludeVaccineCost: *vaccine,
		IncludeLaborCost:   *labor,
	}
	if *partial {
		filterState.Mode = report.ModePartial
	}
	if *from != "" {
		t, err := time.Parse("2006-01-02", *from)
		if err != nil {
			return fmt.Errorf("report: bad -from: %w", err)
		}
		filterState.From = t
	}
	if *to != "" {
		t, err := time.Parse("2006-01-02", *to)
		if err != nil {
			return fmt.Errorf("report: bad -to: %w", err)
		}
		filterState.To = t
	}
	if *ids != "" {
		filterState.SelectionIDs = strings.Split(*ids, ",")
	}

	p := report.NewPipeline(a.client, a.orch, a.cfg.Tenant, *module, report.Options{
		TTL:         a.cfg.Cache.ReportTTL,
		PageSize:    a.cfg.Report.PageSize,
		TrendWindow: a.cfg.Report.TrendWindow,
		TopN:        a.cfg.Report.TopN,
		PartialRows: a.cfg.Report.PartialRowLimit,
	})

	rep, err := p.Run(ctx, filterState)
	if err != nil {
		return err
	}

	fmt.Printf("report%s\n", provenanceBadge(rep.Stale))
	k := rep.KPIs
	fmt.Printf("  batches %d, birds %.0f\n", k.BatchCount, k.BirdCount)
	fmt.Printf("  revenue %.2f\n", k.Revenue)
	fmt.Printf("  cost %.2f base / %.2f adjusted (vaccine %.2f, labor %.2f)\n",
		k.BaseCost, k.AdjustedCost, k.VaccineCost, k.LaborCost)
	fmt.Printf("  profit %.2f base / %.2f adjusted\n", k.ProfitBase, k.ProfitAdjusted)
	fmt.Printf("  feed %.1f kg costing %.2f, FCR %.2f, ADG %.3f kg/day\n",
		k.FeedKg, k.FeedCost, k.FCR, k.AvgDailyGainKg)
	fmt.Printf("  mortality %.0f (%.2f%%)\n", k.MortalityCount, k.MortalityRate*100)

	if len(rep.TopCauses) > 0 {
		fmt.Println("  top mortality causes:")
		for _, r := range rep.TopCauses {
			fmt.Printf("    %s: %.0f\n", r.Label, r.Value)
		}
	}
	if len(rep.TopBatchProfit) > 0 {
		fmt.Println("  batch profitability:")
		for _, r := range rep.TopBatchProfit {
			fmt.Printf("    %s: %.2f\n", r.Label, r.Value)
		}
	}
	if len(rep.MortalityTrend) > 0 {
		fmt.Println("  mortality trend (newest first):")
		for _, b := range rep.MortalityTrend {
			fmt.Printf("    %s: %.0f\n", b.Day.Format("2006-01-02"), b.Value)
		}
	}
	return nil
}

// serverReport fetches a report rendered by the API under /reports/<name>,
// cache-backed like any other read.
func (a *app) serverReport(ctx context.Context, name, module, from, to, ids string) error {
	q := url.Values{}
	q.Set("module", module)
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	if ids != "" {
		q.Set("ids", ids)
	}

	key := fmt.Sprintf("report:%s:%s?%s",
		url.QueryEscape(a.cfg.Tenant), url.QueryEscape(name), q.Encode())
	res, err := a.orch.Resolve(ctx, key, a.cfg.Cache.ReportTTL,
		func(ctx context.Context) (json.RawMessage, error) {
			return a.client.Report(ctx, name, q)
		})
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(res.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	fmt.Printf("%s report%s\n%s\n", name, provenanceBadge(res.Stale), pretty)
	return nil
}
