package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/batimetric/pricing-engine/internal/adjust"
	"github.com/batimetric/pricing-engine/internal/ledger"
	"github.com/batimetric/pricing-engine/internal/pricer"
	"github.com/batimetric/pricing-engine/internal/rates"
	"github.com/batimetric/pricing-engine/pkg/catalog"
)

// engineEnv bundles the wired-up engine and its dependencies. The ledger is
// opened once at startup and injected everywhere it is read or written.
type engineEnv struct {
	Ledger  ledger.Store
	Catalog catalog.Client
	Tables  *rates.Tables
	Engine  *pricer.Engine
}

func initEngine(ctx context.Context) (*engineEnv, error) {
	tables := rates.Default()
	if cfg.Pricing.TablesPath != "" {
		t, err := rates.Load(cfg.Pricing.TablesPath)
		if err != nil {
			return nil, err
		}
		tables = t
		zap.L().Info("loaded benchmark tables", zap.String("path", cfg.Pricing.TablesPath))
	}

	store, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}

	matcher := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithRateLimit(cfg.Catalog.RateLimit),
	)

	estimator := adjust.NewEstimator(store)
	engine := pricer.NewEngine(
		pricer.NewTaskPricer(tables, estimator),
		pricer.NewMaterialPricer(matcher, estimator),
		cfg.Pricing.MatchConcurrency,
	)

	return &engineEnv{
		Ledger:  store,
		Catalog: matcher,
		Tables:  tables,
		Engine:  engine,
	}, nil
}

func (e *engineEnv) Close() {
	if err := e.Ledger.Close(); err != nil {
		zap.L().Warn("close ledger", zap.Error(err))
	}
}
