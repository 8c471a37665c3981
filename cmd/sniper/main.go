package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/dexsniper/config"
	"github.com/alejandrodnm/dexsniper/internal/adapters/httpapi"
	"github.com/alejandrodnm/dexsniper/internal/adapters/notify"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one engine tick, wait for its positions to close and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	report := flag.Bool("report", false, "print recorded trades + analysis and exit")
	noServer := flag.Bool("no-server", false, "do not start the HTTP API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	console := notify.NewConsole()

	if *report {
		if err := runReport(ctx, cfg.Storage.JournalDSN, console); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("dexsniper starting",
		"config", *configPath,
		"poll_interval", cfg.PollInterval(),
		"trade_size", cfg.Engine.TradeSize,
		"storage", cfg.Storage.Driver,
		"once", *once,
	)

	app, err := build(ctx, cfg, console)
	if err != nil {
		slog.Error("failed to start", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if *once {
		if err := runOnce(ctx, app, console); err != nil {
			slog.Error("tick failed", "err", err)
			app.Close()
			os.Exit(1)
		}
		return
	}

	var srv *http.Server
	if cfg.ServerEnabled() && !*noServer {
		srv = &http.Server{
			Addr: cfg.Server.Addr,
			Handler: httpapi.New(httpapi.Deps{
				Feed:    app.feed,
				Store:   app.store,
				Wallet:  app.ledger,
				Catalog: app.catalog,
				Engine:  app.engine,
				Metrics: app.metrics,
			}).Router(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			slog.Info("http api listening", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
				cancel()
			}
		}()
	}

	app.engine.Start(ctx)
	<-ctx.Done()

	slog.Info("shutting down")
	app.engine.Stop()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "err", err)
		}
	}

	printSession(app, console)
	slog.Info("dexsniper stopped cleanly")
}

// runOnce ejecuta un tick y espera a que sus posiciones cierren (o a la señal).
func runOnce(ctx context.Context, app *application, console *notify.Console) error {
	res, err := app.engine.RunOnce(ctx)
	if err != nil {
		return err
	}
	slog.Info("tick complete",
		"polled", res.Polled,
		"accepted", res.Accepted,
		"rejected", res.Rejected,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	if res.Accepted > 0 {
		slog.Info("waiting for open positions to close")
	}
	app.engine.Wait()
	printSession(app, console)
	return nil
}

func printSession(app *application, console *notify.Console) {
	console.PrintBalances(app.ledger.Balances())
	a, err := app.journal.Analysis(context.Background())
	if err != nil {
		slog.Warn("journal analysis", "err", err)
		return
	}
	console.PrintAnalysis(a)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
