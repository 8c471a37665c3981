// Package httpapi expone la API HTTP del sniper: descubrimiento, oportunidades,
// wallet simulado y estado del engine.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alejandrodnm/dexsniper/internal/application/engine"
	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/observability"
	"github.com/alejandrodnm/dexsniper/internal/ports"
)

const defaultRequestTimeout = 30 * time.Second

// Wallet es la parte del ledger que usa la API.
type Wallet interface {
	Buy(ctx context.Context, token string, baseAmount float64) (domain.Fill, error)
	Sell(ctx context.Context, token string, tokenAmount float64) (domain.Fill, error)
	Balances() domain.Balances
	TokenBalance(token string) float64
}

// StatusProvider devuelve el estado del engine.
type StatusProvider interface {
	Status() engine.Status
}

// Cataloger guarda un lote de snapshots analizados.
type Cataloger interface {
	IngestBatch(ctx context.Context, snapshots []domain.TokenSnapshot) int
}

// Deps agrupa los colaboradores. Catalog, Engine y Metrics son opcionales.
type Deps struct {
	Feed    ports.TokenFeed
	Store   ports.TokenStore
	Wallet  Wallet
	Catalog Cataloger
	Engine  StatusProvider
	Metrics *observability.Metrics
}

// Server maneja las rutas HTTP.
type Server struct {
	deps Deps
}

// New crea el Server.
func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router construye el chi.Router con middleware y rutas.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(s.deps.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", s.deps.Metrics.Handler())

	r.Get("/fetch-meme-coins", s.fetchMemeCoins)
	r.Get("/trading-opportunities", s.tradingOpportunities)
	r.Get("/balances", s.balances)
	r.Get("/balances/{tokenAddress}", s.balances)
	r.Post("/trade/{tokenAddress}", s.trade)
	r.Get("/engine/status", s.engineStatus)

	return r
}
