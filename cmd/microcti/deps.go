package main

import (
	"context"
	"fmt"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/dirs"
	"github.com/esoadamo/micro-cti-go/internal/ingest"
	"github.com/esoadamo/micro-cti-go/internal/oracle"
	"github.com/esoadamo/micro-cti-go/internal/search"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// searchCacheTTL is how long a resolved search result set stays valid
// before its underlying posts could plausibly have changed relevance.
const searchCacheTTL = time.Hour

// appDeps bundles everything a subcommand typically needs, built once
// from the resolved base directory and config.toml.
type appDeps struct {
	Dirs    dirs.Dirs
	Config  *config.Config
	Store   *store.SQLiteStore
	Oracle  oracle.Oracle
	Engine  *search.Engine
	Adapters []ingest.Adapter
}

// loadDeps resolves dirs, loads config.toml, opens the store and
// builds the Oracle and SearchEngine. Every subcommand that touches
// the database calls this first.
func loadDeps(ctx context.Context, needOracle bool) (*appDeps, func(), error) {
	d := dirs.Resolve(baseDir)
	if err := d.EnsureAll(); err != nil {
		return nil, nil, fmt.Errorf("preparing directories: %w", err)
	}

	cfg, err := config.Load(d.ConfigFile())
	if err != nil {
		return nil, nil, err
	}

	st := store.New(d.Data + "/microcti.db")
	if err := st.Acquire(ctx); err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() { st.Release() }

	deps := &appDeps{
		Dirs:     d,
		Config:   cfg,
		Store:    st,
		Adapters: ingest.BuildAdapters(cfg),
		Engine:   &search.Engine{Store: st, CacheDir: d.Cache, CacheTTL: searchCacheTTL},
	}

	if needOracle {
		o, err := oracle.Build(ctx, cfg.AI)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Oracle = o
	}

	return deps, cleanup, nil
}
