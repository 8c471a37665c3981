package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side de una entrada del ledger.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide acepta "buy"/"sell" en mayúsculas o minúsculas.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("side %q: %w", s, ErrInvalidInput)
}

// Quote es la estimación del agregador para un swap.
// Los montos están en unidades raw de cada mint.
type Quote struct {
	InputMint      string  `json:"input_mint"`
	OutputMint     string  `json:"output_mint"`
	InAmount       uint64  `json:"in_amount"`
	OutAmount      uint64  `json:"out_amount"`
	PriceImpactPct float64 `json:"price_impact_pct"`
	PriceUSD       Metric  `json:"price_usd"`
	SlippageBps    int     `json:"slippage_bps"`
}

// QuoteRequest pide cotizar Amount unidades raw de InputMint a OutputMint.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps int
}

// LedgerEntry es un registro append-only; no se modifica tras añadirse.
// Montos de token en unidades raw, montos base en unidades enteras del activo base.
type LedgerEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Side           Side      `json:"side"`
	TokenAddress   string    `json:"token_address"`
	InputMint      string    `json:"input_mint"`
	InputAmount    float64   `json:"input_amount"`
	OutputMint     string    `json:"output_mint"`
	OutputAmount   float64   `json:"output_amount"`
	Price          float64   `json:"price"`
	PriceUSD       Metric    `json:"price_usd"`
	PriceImpactPct float64   `json:"price_impact_pct"`
	SlippageBps    int       `json:"slippage_bps"`
	ROI            float64   `json:"roi"`
}

// Fill es lo que devuelve una compra o venta del ledger.
type Fill struct {
	Entry        LedgerEntry `json:"entry"`
	Price        float64     `json:"price"`
	OutputAmount float64     `json:"output_amount"`
	ROI          float64     `json:"roi"`
}

// Balances es un snapshot de solo lectura del wallet simulado.
type Balances struct {
	Base   float64            `json:"sol"`
	Tokens map[string]float64 `json:"tokens"`
}

// Token devuelve la cantidad de addr, 0 si no hay.
func (b Balances) Token(addr string) float64 {
	return b.Tokens[addr]
}

// ROI devuelve (exit-entry)/entry*100, o 0 si entry no es positivo.
func ROI(entryPrice, exitPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return (exitPrice - entryPrice) / entryPrice * 100
}
