package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "dexsniper"})
}

// fetchMemeCoins hace un poll en vivo y cataloga el resultado.
func (s *Server) fetchMemeCoins(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.deps.Feed.Poll(r.Context())
	if err != nil {
		slog.Warn("api: fetch meme coins", "err", err)
		writeError(w, err)
		return
	}
	if s.deps.Catalog != nil {
		s.deps.Catalog.IngestBatch(r.Context(), snaps)
	}
	if snaps == nil {
		snaps = []domain.TokenSnapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Fetched and processed %d meme coins.", len(snaps)),
		"data":    snaps,
	})
}

func (s *Server) tradingOpportunities(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Store.FindGoodTrades(r.Context())
	if err != nil {
		slog.Warn("api: trading opportunities", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(docs),
		"opportunities": docs,
	})
}

type tokenBalance struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// balances sirve /balances y /balances/{tokenAddress}.
func (s *Server) balances(w http.ResponseWriter, r *http.Request) {
	b := s.deps.Wallet.Balances()
	body := map[string]any{"sol": b.Base, "token": nil}

	if addr := chi.URLParam(r, "tokenAddress"); addr != "" {
		if !domain.ValidTokenAddress(addr) {
			writeError(w, fmt.Errorf("token address %q: %w", addr, domain.ErrInvalidInput))
			return
		}
		body["token"] = tokenBalance{Address: addr, Amount: b.Token(addr)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "balances": body})
}

type tradeRequest struct {
	Action string  `json:"action"`
	Amount float64 `json:"amount"`
}

// trade ejecuta un BUY (amount en SOL) o un SELL (amount en unidades raw del token).
func (s *Server) trade(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "tokenAddress")
	if !domain.ValidTokenAddress(addr) {
		writeError(w, fmt.Errorf("token address %q: %w", addr, domain.ErrInvalidInput))
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("request body: %w", domain.ErrInvalidInput))
		return
	}
	side, err := domain.ParseSide(req.Action)
	if err != nil {
		writeError(w, fmt.Errorf("invalid action, must be BUY or SELL: %w", domain.ErrInvalidInput))
		return
	}
	if req.Amount <= 0 {
		writeError(w, fmt.Errorf("amount must be positive: %w", domain.ErrInvalidInput))
		return
	}

	var fill domain.Fill
	switch side {
	case domain.SideBuy:
		fill, err = s.deps.Wallet.Buy(r.Context(), addr, req.Amount)
	case domain.SideSell:
		fill, err = s.deps.Wallet.Sell(r.Context(), addr, req.Amount)
	}
	if err != nil {
		slog.Warn("api: trade failed", "token", addr, "side", side, "amount", req.Amount, "err", err)
		writeError(w, err)
		return
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.AppendTrade(r.Context(), addr, domain.TradeRecordFromEntry(fill.Entry)); err != nil {
			slog.Warn("api: append trade", "token", addr, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"trade": map[string]any{
			"action":        side,
			"token_address": addr,
			"amount":        req.Amount,
			"result":        fill.Entry,
		},
		"balances": map[string]any{
			"sol":   s.deps.Wallet.Balances().Base,
			"token": s.deps.Wallet.TokenBalance(addr),
		},
	})
}

func (s *Server) engineStatus(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Engine == nil {
		writeError(w, fmt.Errorf("engine: %w", domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Engine.Status())
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("api: encode response", "err", err)
	}
}

// writeError mapea los errores de dominio a status HTTP.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}
