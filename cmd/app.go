package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/donexus/lease-extract/internal/extractor"
	"github.com/donexus/lease-extract/internal/files"
	"github.com/donexus/lease-extract/internal/pipeline"
	"github.com/donexus/lease-extract/internal/quality"
	"github.com/donexus/lease-extract/internal/store"
	"github.com/donexus/lease-extract/pkg/anthropic"
)

// appEnv bundles the wired application components.
type appEnv struct {
	Store    store.Store
	Files    *files.Manager
	Pipeline *pipeline.Pipeline
}

// initApp wires store, upload storage, extractor and quality engine from
// the loaded config. The store is migrated before use.
func initApp(ctx context.Context) (*appEnv, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	fm, err := files.NewManager(cfg.Upload)
	if err != nil {
		st.Close()
		return nil, eris.Wrap(err, "init upload storage")
	}

	qcfg := quality.DefaultConfig()
	if cfg.Quality.RulesFile != "" {
		qcfg, err = quality.LoadConfig(cfg.Quality.RulesFile)
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "load quality rules")
		}
	}

	if cfg.Anthropic.Key == "" {
		st.Close()
		return nil, eris.New("anthropic api key not configured (LEASE_ANTHROPIC_KEY)")
	}

	ex := extractor.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic, cfg.Extract)
	pipe := pipeline.New(st, ex, quality.NewEngine(qcfg))

	return &appEnv{Store: st, Files: fm, Pipeline: pipe}, nil
}

// initStore opens and migrates just the journal, for commands that never
// call the extraction pipeline.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}
