// Package catalog persiste los tokens descubiertos junto con su análisis de oportunidad.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/observability"
	"github.com/alejandrodnm/dexsniper/internal/ports"
)

// Resultados de ingesta (etiqueta de métrica).
const (
	ResultSaved      = "saved"
	ResultGood       = "good"
	ResultNoMetadata = "no_metadata"
	ResultError      = "error"
)

// Catalog enriquece cada snapshot con metadata on-chain, lo puntúa y lo guarda.
// Cada dirección se cataloga una sola vez por ejecución.
type Catalog struct {
	meta    ports.MetadataProvider
	store   ports.TokenStore
	scorer  domain.OpportunityScorer
	workers int
	metrics *observability.Metrics
	now     func() time.Time

	mu   sync.Mutex
	seen map[string]bool
}

// Option configura el Catalog.
type Option func(*Catalog)

// WithWorkers fija el tamaño del pool. <= 0 usa runtime.NumCPU().
func WithWorkers(n int) Option { return func(c *Catalog) { c.workers = n } }

// WithScorer reemplaza los umbrales por defecto.
func WithScorer(s domain.OpportunityScorer) Option { return func(c *Catalog) { c.scorer = s } }

// WithMetrics registra resultados de ingesta.
func WithMetrics(m *observability.Metrics) Option { return func(c *Catalog) { c.metrics = m } }

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option { return func(c *Catalog) { c.now = now } }

// New crea un Catalog.
func New(meta ports.MetadataProvider, store ports.TokenStore, opts ...Option) *Catalog {
	c := &Catalog{
		meta:   meta,
		store:  store,
		scorer: domain.DefaultOpportunityScorer(),
		now:    time.Now,
		seen:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers <= 0 {
		c.workers = runtime.NumCPU()
	}
	return c
}

// Ingest analiza y guarda un snapshot. Devuelve el documento guardado y false
// si el mint no existe on-chain (no es un error).
func (c *Catalog) Ingest(ctx context.Context, s domain.TokenSnapshot) (domain.TokenDocument, bool, error) {
	chain, found, err := c.meta.FetchMetadata(ctx, s.Address)
	if err != nil {
		return domain.TokenDocument{}, false, fmt.Errorf("catalog.Ingest: metadata %s: %w", s.Address, err)
	}
	if !found {
		return domain.TokenDocument{}, false, nil
	}

	now := c.now()
	doc := domain.TokenDocument{
		TokenAddress: s.Address,
		Icon:         s.Info.ImageURL,
		Header:       s.Info.Header,
		OpenGraph:    s.Info.OpenGraph,
		Market:       s,
		OnChain:      chain,
		Analysis:     c.scorer.Score(s, chain, now),
		UpdatedAt:    now.UTC(),
	}
	if err := c.store.SaveToken(ctx, doc); err != nil {
		return domain.TokenDocument{}, false, fmt.Errorf("catalog.Ingest: save %s: %w", s.Address, err)
	}
	return doc, true, nil
}

// IngestBatch cataloga en paralelo los snapshots no vistos en esta ejecución.
// Los fallos individuales se loguean y no detienen el lote. Devuelve cuántos se guardaron.
func (c *Catalog) IngestBatch(ctx context.Context, snaps []domain.TokenSnapshot) int {
	pending := c.claim(snaps)
	if len(pending) == 0 {
		return 0
	}

	workCh := make(chan domain.TokenSnapshot, len(pending))
	for _, s := range pending {
		workCh <- s
	}
	close(workCh)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		saved int
		good  int
	)
	workers := min(c.workers, len(pending))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range workCh {
				if ctx.Err() != nil {
					c.unclaim(s.Address)
					continue
				}
				doc, ok, err := c.Ingest(ctx, s)
				switch {
				case err != nil:
					// se reintenta en el siguiente lote
					c.unclaim(s.Address)
					c.metrics.ObserveCatalog(ResultError)
					slog.Debug("catalog: ingest failed", "token", s.Address, "err", err)
				case !ok:
					c.metrics.ObserveCatalog(ResultNoMetadata)
					slog.Debug("catalog: no on-chain metadata", "token", s.Address)
				default:
					c.metrics.ObserveCatalog(ResultSaved)
					mu.Lock()
					saved++
					if doc.Analysis.IsGoodTrade {
						good++
					}
					mu.Unlock()
					if doc.Analysis.IsGoodTrade {
						c.metrics.ObserveCatalog(ResultGood)
						slog.Info("catalog: good trade",
							"token", s.Address,
							"symbol", s.Symbol,
							"score", doc.Analysis.Score,
						)
					}
				}
			}
		}()
	}
	wg.Wait()

	slog.Debug("catalog: batch complete",
		"queued", len(pending),
		"saved", saved,
		"good", good,
		"workers", workers,
	)
	return saved
}

// claim marca como vistas las direcciones nuevas y devuelve sus snapshots.
func (c *Catalog) claim(snaps []domain.TokenSnapshot) []domain.TokenSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.TokenSnapshot
	for _, s := range snaps {
		if s.Address == "" || c.seen[s.Address] {
			continue
		}
		c.seen[s.Address] = true
		out = append(out, s)
	}
	return out
}

func (c *Catalog) unclaim(addr string) {
	c.mu.Lock()
	delete(c.seen, addr)
	c.mu.Unlock()
}
