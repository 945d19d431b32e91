package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/analysis"
	"github.com/phenorank/internal/config"
	"github.com/phenorank/internal/domain"
	"github.com/phenorank/internal/store"
	"github.com/phenorank/pkg/external"
)

// app holds what every command needs: the validated configuration and the logger.
type app struct {
	config  *config.Manager
	logger  *logrus.Logger
	closers []func() error
}

func loadApp() (*app, error) {
	manager, err := config.NewManager(configFile)
	if err != nil {
		return nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := config.NewLogger(manager.GetConfig().Logging)
	if err != nil {
		return nil, err
	}
	return &app{config: manager, logger: logger}, nil
}

func (a *app) cfg() *domain.Config {
	return a.config.GetConfig()
}

// Close releases everything opened through the app, latest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.WithError(err).Warn("Failed to release resource")
		}
	}
	a.closers = nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	cfg := a.cfg()
	s, err := store.Open(ctx, cfg.Store, cfg.Database, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s.Close)
	return s, nil
}

// resolver returns the HGNC resolver with its cache tiers, or nil when HGNC
// lookups are disabled.
func (a *app) resolver() (*external.CachedGeneResolver, error) {
	cfg := a.cfg()
	if !cfg.HGNC.Enabled {
		return nil, nil
	}

	var shared domain.IdentifierCache
	if cfg.Cache.Enabled {
		cache, err := external.NewRedisIdentifierCache(cfg.Cache)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cache.Close)
		shared = cache
	}

	client := external.NewHGNCClient(cfg.HGNC, a.logger)
	return external.NewCachedGeneResolver(external.ResolverConfig{
		MaxMemorySize: cfg.HGNC.CacheSize,
	}, client, shared, a.logger)
}

// runner opens the store and builds the analysis runner over it.
func (a *app) runner(ctx context.Context) (*analysis.Runner, *external.CachedGeneResolver, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := a.cfg()
	opts := []analysis.Option{
		analysis.WithWorkers(cfg.Runner.Workers),
		analysis.WithDefaults(cfg.Runner.FilterPolicy, cfg.Priority.WithDefaults(domain.DefaultPriorityPolicy())),
	}

	resolver, err := a.resolver()
	if err != nil {
		return nil, nil, err
	}
	if resolver != nil {
		opts = append(opts, analysis.WithResolver(resolver))
	}
	return analysis.NewRunner(s, a.logger, opts...), resolver, nil
}
