// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package main is the Paddock command-line runner.
//
// Paddock is an offline-tolerant data-access layer for a multi-tenant
// farm-operations API: schema-driven record management and multi-source
// report aggregation, with every read backed by a durable local cache so
// the surface degrades to previously seen snapshots when the network or
// the origin database is down.
//
// # Application Architecture
//
// The runner initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Durable store: BadgerDB (or in-memory for ephemeral runs)
//  3. Cache store: TTL-aware, LRU-bounded, namespaced over the store
//  4. Session: bearer token persistence and tenant context
//  5. API client: rate-limited, circuit-broken REST client
//  6. Supervisor tree: cache sweeper under suture
//
// # Commands
//
//	paddock login -token <bearer>       store the API bearer token
//	paddock entities -module <key>      show a module's entity schemas
//	paddock list -module <key> -table <t> [-page N] [-search S] [-filter f=v]
//	paddock dashboard                   show the farm summary
//	paddock report -module <key> [-from D] [-to D] [-ids 1,2] [-partial]
//	paddock logout                      clear token and cached data
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables (PADDOCK_*), config file
// (paddock.yaml), built-in defaults.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/paddockhq/paddock/internal/api"
	"github.com/paddockhq/paddock/internal/cache"
	"github.com/paddockhq/paddock/internal/config"
	"github.com/paddockhq/paddock/internal/fetch"
	"github.com/paddockhq/paddock/internal/kvstore"
	"github.com/paddockhq/paddock/internal/logging"
	"github.com/paddockhq/paddock/internal/schema"
	"github.com/paddockhq/paddock/internal/session"
	"github.com/paddockhq/paddock/internal/supervisor"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	app, err := newApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		logging.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: paddock <login|entities|list|dashboard|report|logout> [flags]")
}

// app wires the full stack for one invocation.
type app struct {
	cfg     *config.Config
	kv      kvstore.Store
	cache   *cache.Store
	sess    *session.Session
	client  *api.Client
	orch    *fetch.Orchestrator
	reg     *schema.Registry
	tree    *supervisor.Tree
	stopSup context.CancelFunc
	supDone <-chan error
}

func newApp(cfg *config.Config) (*app, error) {
	var kv kvstore.Store
	if cfg.Store.InMemory {
		kv = kvstore.NewMemoryStore()
	} else {
		badgerStore, err := kvstore.OpenBadger(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store at %s: %w", cfg.Store.Path, err)
		}
		kv = badgerStore
	}

	cacheStore := cache.New(kv, cache.WithMaxEntries(cfg.Cache.MaxEntries))
	sess := session.New(kv, cacheStore, cfg.Tenant)
	client := api.NewClient(&cfg.API, sess)
	orch := fetch.NewOrchestrator(cacheStore)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(supervisor.NewSweepService(
		cacheStore, cfg.Cache.SweepInterval, cfg.Cache.SweepMaxAge,
	))

	supCtx, stopSup := context.WithCancel(context.Background())
	supDone := tree.ServeBackground(supCtx)

	return &app{
		cfg:     cfg,
		kv:      kv,
		cache:   cacheStore,
		sess:    sess,
		client:  client,
		orch:    orch,
		reg:     schema.NewRegistry(client, orch, cfg.Tenant, cfg.Cache.SchemaTTL),
		tree:    tree,
		stopSup: stopSup,
		supDone: supDone,
	}, nil
}

// Close stops the supervisor and the durable store.
func (a *app) Close() {
	a.stopSup()
	<-a.supDone

	if err := a.kv.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing store")
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(args)
	case "entities":
		return a.cmdEntities(ctx, args)
	case "list":
		return a.cmdList(ctx, args)
	case "dashboard":
		return a.cmdDashboard(ctx, args)
	case "report":
		return a.cmdReport(ctx, args)
	case "logout":
		return a.sess.Logout()
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// parseFilters splits repeated field=value pairs.
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("filter %q: want field=value", pair)
		}
		out[field] = value
	}
	return out, nil
}

func provenanceBadge(stale bool) string {
	if stale {
		return " [cached]"
	}
	return ""
}
