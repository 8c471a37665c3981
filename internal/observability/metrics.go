// Package observability expone las métricas Prometheus del sniper.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// Resultados por snapshot evaluado.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Metrics agrupa los collectors. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	registry *prometheus.Registry

	// Engine
	TicksTotal        *prometheus.CounterVec
	CandidatesTotal   *prometheus.CounterVec
	PositionsOpened   prometheus.Counter
	PositionsClosed   *prometheus.CounterVec
	ActivePositions   prometheus.Gauge
	SettledTokens     prometheus.Gauge
	DiscoveryDuration prometheus.Histogram
	TradeROI          prometheus.Histogram

	// Ledger
	LedgerTrades *prometheus.CounterVec
	BaseBalance  prometheus.Gauge

	// Catalog
	TokensCatalogued *prometheus.CounterVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics registra todos los collectors en un registry propio.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dexsniper"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TicksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Engine ticks by status (ok, poll_error)",
		}, []string{"status"}),
		CandidatesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "candidates_total",
			Help:      "Discovered snapshots by gate outcome",
		}, []string{"outcome"}),
		PositionsOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "positions_opened_total",
			Help:      "Positions that completed a buy",
		}),
		PositionsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "positions_closed_total",
			Help:      "Positions reaching a terminal state",
		}, []string{"status"}),
		ActivePositions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "active_positions",
			Help:      "Positions currently bought or monitoring",
		}),
		SettledTokens: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "settled_tokens",
			Help:      "Token addresses permanently excluded after a completed sell",
		}),
		DiscoveryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a discovery poll including enrichment",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TradeROI: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trade_roi_percent",
			Help:      "ROI of completed positions",
			Buckets:   []float64{-90, -50, -25, -10, 0, 10, 25, 50, 100, 500},
		}),
		LedgerTrades: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_total",
			Help:      "Applied ledger trades by side",
		}, []string{"side"}),
		BaseBalance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "base_balance",
			Help:      "Simulated base-asset balance",
		}),
		TokensCatalogued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "tokens_total",
			Help:      "Catalog ingestion results (saved, good, no_metadata, error)",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
	}
}

// Handler sirve el registry en formato texto de Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer expone el registry para tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveTick registra un tick del engine.
func (m *Metrics) ObserveTick(status string, poll time.Duration) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(status).Inc()
	m.DiscoveryDuration.Observe(poll.Seconds())
}

func (m *Metrics) ObserveCandidate(outcome string) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(outcome).Inc()
}

// PositionOpened registra una compra completada.
func (m *Metrics) PositionOpened() {
	if m == nil {
		return
	}
	m.PositionsOpened.Inc()
}

// PositionClosed registra una posición terminal; roi solo se observa en SOLD.
func (m *Metrics) PositionClosed(status domain.PositionStatus, roi float64) {
	if m == nil {
		return
	}
	m.PositionsClosed.WithLabelValues(string(status)).Inc()
	if status == domain.StatusSold {
		m.TradeROI.Observe(roi)
	}
}

// SetPositions actualiza los gauges de activas y cerradas.
func (m *Metrics) SetPositions(active, settled int) {
	if m == nil {
		return
	}
	m.ActivePositions.Set(float64(active))
	m.SettledTokens.Set(float64(settled))
}

// LedgerTrade implementa ledger.Observer.
func (m *Metrics) LedgerTrade(side domain.Side, baseBalance float64) {
	if m == nil {
		return
	}
	m.LedgerTrades.WithLabelValues(string(side)).Inc()
	m.BaseBalance.Set(baseBalance)
}

func (m *Metrics) ObserveCatalog(result string) {
	if m == nil {
		return
	}
	m.TokensCatalogued.WithLabelValues(result).Inc()
}

// Middleware registra requests y latencia por patrón de ruta de chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
