// Package engine ejecuta el loop descubrimiento → gate → ciclo de vida de la posición.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/observability"
	"github.com/alejandrodnm/dexsniper/internal/ports"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultPacingDelay     = time.Second
	DefaultMonitorInterval = 100 * time.Millisecond
	DefaultTradeSize       = 0.1

	// recordTimeout acota la persistencia y el reporte post-trade.
	recordTimeout = 10 * time.Second
)

// Trader es la parte del ledger que usa el engine.
type Trader interface {
	Buy(ctx context.Context, token string, baseAmount float64) (domain.Fill, error)
	SellAll(ctx context.Context, token string) (domain.Fill, error)
}

// Cataloger guarda snapshots analizados para el ranking de oportunidades.
type Cataloger interface {
	IngestBatch(ctx context.Context, snapshots []domain.TokenSnapshot) int
}

// Config contiene tiempos y tamaño de trade. Los zero values usan los defaults.
type Config struct {
	PollInterval    time.Duration
	PacingDelay     time.Duration
	MonitorInterval time.Duration
	TradeSize       float64
	ExitAgeMinutes  float64
	Gate            domain.EntryGate
}

// Option configura colaboradores opcionales.
type Option func(*Engine)

// WithStore añade los trades ejecutados al store de tokens.
func WithStore(s ports.TokenStore) Option { return func(e *Engine) { e.store = s } }

// WithCatalog cataloga cada lote después de las decisiones de trading.
func WithCatalog(c Cataloger) Option { return func(e *Engine) { e.catalog = c } }

func WithMetrics(m *observability.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// Engine es dueño del estado de ejecución, del registry y de los monitores.
type Engine struct {
	cfg      Config
	feed     ports.TokenFeed
	trader   Trader
	reporter ports.TradeReporter
	store    ports.TokenStore
	catalog  Cataloger
	metrics  *observability.Metrics
	now      func() time.Time

	positions *registry
	monitors  sync.WaitGroup

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New crea un engine parado. reporter puede ser nil.
func New(cfg Config, feed ports.TokenFeed, trader Trader, reporter ports.TradeReporter, opts ...Option) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PacingDelay <= 0 {
		cfg.PacingDelay = DefaultPacingDelay
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = DefaultMonitorInterval
	}
	if cfg.TradeSize <= 0 {
		cfg.TradeSize = DefaultTradeSize
	}
	if cfg.ExitAgeMinutes <= 0 {
		cfg.ExitAgeMinutes = domain.DefaultExitAgeMinutes
	}
	if cfg.Gate == (domain.EntryGate{}) {
		cfg.Gate = domain.DefaultEntryGate()
	}
	e := &Engine{
		cfg:       cfg,
		feed:      feed,
		trader:    trader,
		reporter:  reporter,
		now:       time.Now,
		positions: newRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start lanza el loop periódico. Si ya está corriendo no hace nada y devuelve false.
// El loop y los monitores paran cuando ctx termina o se llama a Stop.
func (e *Engine) Start(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.loop(runCtx, e.done)

	slog.Info("engine: started",
		"poll_interval", e.cfg.PollInterval,
		"trade_size", e.cfg.TradeSize,
		"exit_age_min", e.cfg.ExitAgeMinutes,
	)
	return true
}

// Stop cancela el loop y los monitores pendientes y espera a que terminen.
// Cuando Stop retorna ningún monitor toca el ledger.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel, done := e.cancel, e.done
	e.running = false
	e.mu.Unlock()

	cancel()
	<-done
	e.monitors.Wait()
	slog.Info("engine: stopped")
}

// Wait bloquea hasta que terminen todos los monitores lanzados.
func (e *Engine) Wait() {
	e.monitors.Wait()
}

// Status es una vista de solo lectura del engine.
type Status struct {
	Running   bool              `json:"running"`
	Active    int               `json:"active_positions"`
	Settled   []string          `json:"settled_tokens"`
	Positions []domain.Position `json:"positions"`
}

// Status devuelve el flag de ejecución y una copia de las posiciones.
func (e *Engine) Status() Status {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()

	positions, settled := e.positions.snapshot()
	return Status{
		Running:   running,
		Active:    len(positions) - len(settled),
		Settled:   settled,
		Positions: positions,
	}
}

// TickResult cuenta qué pasó con cada snapshot del poll.
type TickResult struct {
	Polled   int
	Accepted int
	Rejected int
	Skipped  int
	Failed   int
}

// RunOnce hace poll del feed y procesa el lote en orden, un token a la vez.
// Los monitores lanzados viven hasta que ctx termina o su posición cierra.
func (e *Engine) RunOnce(ctx context.Context) (TickResult, error) {
	start := time.Now()
	snaps, err := e.feed.Poll(ctx)
	if err != nil {
		e.metrics.ObserveTick("poll_error", time.Since(start))
		return TickResult{}, fmt.Errorf("engine.RunOnce: poll: %w", err)
	}
	e.metrics.ObserveTick("ok", time.Since(start))

	res := TickResult{Polled: len(snaps)}
	// Un token fallido no se reintenta en el mismo tick.
	attempted := make(map[string]bool, len(snaps))
	for i, s := range snaps {
		if i > 0 && !sleepCtx(ctx, e.cfg.PacingDelay) {
			break
		}
		if s.Address == "" || attempted[s.Address] {
			res.Skipped++
			e.metrics.ObserveCandidate(observability.OutcomeSkipped)
			continue
		}
		attempted[s.Address] = true

		outcome := e.processToken(ctx, s)
		switch outcome {
		case observability.OutcomeAccepted:
			res.Accepted++
		case observability.OutcomeRejected:
			res.Rejected++
		case observability.OutcomeSkipped:
			res.Skipped++
		case observability.OutcomeFailed:
			res.Failed++
		}
		e.metrics.ObserveCandidate(outcome)
	}
	e.metrics.SetPositions(e.positions.counts())

	if e.catalog != nil && ctx.Err() == nil {
		e.catalog.IngestBatch(ctx, snaps)
	}

	slog.Debug("engine: tick complete",
		"polled", res.Polled,
		"accepted", res.Accepted,
		"rejected", res.Rejected,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res, nil
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer e.markStopped(done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// markStopped limpia el estado si el loop salió por cancelación del ctx padre.
// Si entretanto Stop o un nuevo Start tomaron el control, no toca nada.
func (e *Engine) markStopped(done chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.done == done {
		e.running = false
		e.cancel()
	}
}

// tick ejecuta un ciclo; pase lo que pase dentro, el loop sigue vivo.
func (e *Engine) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: tick panicked", "panic", r)
		}
	}()
	if _, err := e.RunOnce(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("engine: tick failed", "err", err)
	}
}

// sleepCtx espera d y devuelve false si ctx terminó antes.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
