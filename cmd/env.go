package main

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/newsward/osint-core/internal/dispatch"
	"github.com/newsward/osint-core/internal/fetcher"
	"github.com/newsward/osint-core/internal/normalize"
	"github.com/newsward/osint-core/internal/provider"
	"github.com/newsward/osint-core/internal/risk"
	"github.com/newsward/osint-core/internal/session"
	"github.com/newsward/osint-core/internal/store"
	"github.com/newsward/osint-core/pkg/ghsearch"
	"github.com/newsward/osint-core/pkg/hnsearch"
	"github.com/newsward/osint-core/pkg/rdap"
)

// coreEnv bundles the wired-up aggregation core for the CLI commands.
type coreEnv struct {
	Registry *provider.Registry
	Service  *session.Service
	History  store.HistoryStore
}

// Close flushes pending history writes and closes the store.
func (e *coreEnv) Close() {
	e.Service.Close()
	if e.History != nil {
		if err := e.History.Close(); err != nil {
			zap.L().Warn("close history store", zap.Error(err))
		}
	}
}

// initCore builds the provider registry, coordinator, risk engine, and
// history store from configuration.
func initCore(ctx context.Context) (*coreEnv, error) {
	f := fetcher.New(fetcher.Options{
		UserAgent:    cfg.Fetcher.UserAgent,
		Timeout:      time.Duration(cfg.Fetcher.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Fetcher.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	defaultTimeout := time.Duration(cfg.Dispatch.DefaultTimeoutSecs) * time.Second

	registry := provider.NewRegistry()

	hnCfg := cfg.Providers["hackernews"]
	registry.Register(provider.NewHackerNews(
		hnsearch.NewClient(f, hnsearch.WithBaseURL(hnCfg.BaseURL)),
		hnCfg.Timeout(defaultTimeout),
		hnCfg.Enabled,
	))

	ghCfg := cfg.Providers["github"]
	registry.Register(provider.NewGitHub(
		ghsearch.NewClient(f, ghsearch.WithBaseURL(ghCfg.BaseURL), ghsearch.WithToken(ghCfg.Token)),
		ghCfg.Timeout(defaultTimeout),
		ghCfg.Enabled,
	))

	dnsCfg := cfg.Providers["dnsrecon"]
	registry.Register(provider.NewDNSRecon(
		provider.NetResolver{R: net.DefaultResolver},
		rdap.NewClient(f, rdap.WithBaseURL(dnsCfg.BaseURL)),
		dnsCfg.Timeout(defaultTimeout),
		dnsCfg.Enabled,
	))

	normalizer := &normalize.Normalizer{DefaultMaxResults: cfg.Normalize.DefaultMaxResults}
	coordinator := dispatch.NewCoordinator(registry, normalizer,
		dispatch.WithDefaultTimeout(defaultTimeout),
		dispatch.WithMaxConcurrent(cfg.Dispatch.MaxConcurrent),
	)

	engine := risk.NewEngine(cfg.Risk)

	historyStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := historyStore.Migrate(ctx); err != nil {
		historyStore.Close()
		return nil, err
	}

	writer := session.NewHistoryWriter(historyStore, 64)
	svc := session.NewService(coordinator, engine, writer)

	return &coreEnv{
		Registry: registry,
		Service:  svc,
		History:  historyStore,
	}, nil
}
