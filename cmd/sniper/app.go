package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/dexsniper/config"
	"github.com/alejandrodnm/dexsniper/internal/adapters/dexscreener"
	"github.com/alejandrodnm/dexsniper/internal/adapters/jupiter"
	"github.com/alejandrodnm/dexsniper/internal/adapters/notify"
	"github.com/alejandrodnm/dexsniper/internal/adapters/solana"
	"github.com/alejandrodnm/dexsniper/internal/adapters/storage"
	"github.com/alejandrodnm/dexsniper/internal/application/catalog"
	"github.com/alejandrodnm/dexsniper/internal/application/engine"
	"github.com/alejandrodnm/dexsniper/internal/application/ledger"
	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/observability"
	"github.com/alejandrodnm/dexsniper/internal/ports"
)

const metricsNamespace = "dexsniper"

// application agrupa los componentes cableados del proceso.
type application struct {
	metrics *observability.Metrics
	store   ports.TokenStore
	journal *storage.Journal
	feed    *dexscreener.Feed
	ledger  *ledger.Ledger
	catalog *catalog.Catalog
	engine  *engine.Engine
}

// build construye todo el stack a partir de la configuración.
func build(ctx context.Context, cfg *config.Config, console *notify.Console) (*application, error) {
	metrics := observability.NewMetrics(metricsNamespace)

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	journal, err := storage.NewJournal(cfg.Storage.JournalDSN)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("main.build: %w", err)
	}

	feed := dexscreener.NewFeed(dexscreener.Config{
		BaseURL:    cfg.API.DexScreenerBase,
		ChainID:    cfg.Discovery.ChainID,
		Keywords:   cfg.Discovery.Keywords,
		MaxRetries: cfg.Discovery.MaxRetries,
		RetryBase:  cfg.RetryBase(),
		Timeout:    cfg.DiscoveryTimeout(),
	})

	wallet := ledger.New(jupiter.NewClient(cfg.API.JupiterBase, cfg.API.JupiterRate), ledger.Config{
		InitialBalance: cfg.Ledger.InitialBalance,
		SlippageBps:    cfg.Ledger.SlippageBps,
		BaseMint:       cfg.Ledger.BaseMint,
		BaseDecimals:   cfg.Ledger.BaseDecimals,
	})
	wallet.SetObserver(metrics)

	cat := catalog.New(solana.NewMetadataClient(cfg.API.SolanaRPC), store,
		catalog.WithWorkers(cfg.Engine.CatalogWorkers),
		catalog.WithMetrics(metrics),
	)

	eng := engine.New(engine.Config{
		PollInterval:    cfg.PollInterval(),
		PacingDelay:     cfg.PacingDelay(),
		MonitorInterval: cfg.MonitorInterval(),
		TradeSize:       cfg.Engine.TradeSize,
		ExitAgeMinutes:  cfg.Engine.ExitAgeMinutes,
		Gate: domain.EntryGate{
			MinLiquidityUSD: cfg.Engine.MinLiquidityUSD,
			MinBuys24h:      cfg.Engine.MinBuys24h,
			MaxAgeMinutes:   cfg.Engine.MaxAgeMinutes,
		},
	}, feed, wallet, notify.Multi{console, journal},
		engine.WithStore(store),
		engine.WithCatalog(cat),
		engine.WithMetrics(metrics),
	)

	return &application{
		metrics: metrics,
		store:   store,
		journal: journal,
		feed:    feed,
		ledger:  wallet,
		catalog: cat,
		engine:  eng,
	}, nil
}

// Close libera el store y el journal. El engine ya debe estar detenido.
func (a *application) Close() {
	if err := errors.Join(a.store.Close(), a.journal.Close()); err != nil {
		slog.Warn("close storage", "err", err)
	}
}

// openStore abre el TokenStore del driver configurado, con Redis delante si hay URL.
func openStore(ctx context.Context, cfg config.StorageConfig) (ports.TokenStore, error) {
	var primary ports.TokenStore
	switch cfg.Driver {
	case "postgres":
		pool, err := storage.NewPostgresPool(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("main.openStore: %w", err)
		}
		pg, err := storage.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("main.openStore: %w", err)
		}
		primary = pg
	default:
		s, err := storage.NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("main.openStore: %w", err)
		}
		primary = s
	}

	if cfg.RedisURL == "" {
		return primary, nil
	}
	rdb, err := storage.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		// Sin cache se sigue funcionando, solo más lento.
		slog.Warn("redis unavailable, running without cache", "err", err)
		return primary, nil
	}
	slog.Info("token cache enabled", "ttl", cfg.CacheTTLSec)
	return storage.NewCachedStore(primary, rdb, time.Duration(cfg.CacheTTLSec)*time.Second), nil
}

// runReport imprime los trades del journal y su análisis.
func runReport(ctx context.Context, path string, console *notify.Console) error {
	journal, err := storage.NewJournal(path)
	if err != nil {
		return fmt.Errorf("main.runReport: %w", err)
	}
	defer journal.Close()

	trades, err := journal.Trades(ctx)
	if err != nil {
		return fmt.Errorf("main.runReport: %w", err)
	}
	analysis, err := journal.Analysis(ctx)
	if err != nil {
		return fmt.Errorf("main.runReport: %w", err)
	}
	console.PrintTrades(trades)
	console.PrintAnalysis(analysis)
	return nil
}
