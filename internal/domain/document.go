package domain

import "time"

// TradeStatus es el estado de un trade persistido.
type TradeStatus string

const (
	TradeQuoted    TradeStatus = "QUOTED"
	TradeExecuting TradeStatus = "EXECUTING"
	TradeCompleted TradeStatus = "COMPLETED"
	TradeFailed    TradeStatus = "FAILED"
)

// TradeRecord es un trade añadido al documento guardado de un token.
type TradeRecord struct {
	Side           Side        `json:"side"`
	InputMint      string      `json:"input_mint"`
	InputAmount    float64     `json:"input_amount"`
	OutputMint     string      `json:"output_mint"`
	OutputAmount   float64     `json:"output_amount"`
	Price          float64     `json:"price"`
	PriceImpactPct float64     `json:"price_impact_pct"`
	SlippageBps    int         `json:"slippage_bps"`
	Status         TradeStatus `json:"status"`
	Timestamp      time.Time   `json:"timestamp"`
}

// TradeRecordFromEntry convierte una entrada completada del ledger.
func TradeRecordFromEntry(e LedgerEntry) TradeRecord {
	return TradeRecord{
		Side:           e.Side,
		InputMint:      e.InputMint,
		InputAmount:    e.InputAmount,
		OutputMint:     e.OutputMint,
		OutputAmount:   e.OutputAmount,
		Price:          e.Price,
		PriceImpactPct: e.PriceImpactPct,
		SlippageBps:    e.SlippageBps,
		Status:         TradeCompleted,
		Timestamp:      e.Timestamp,
	}
}

// TokenDocument es la vista persistida de un token analizado.
type TokenDocument struct {
	TokenAddress string              `json:"token_address"`
	Icon         string              `json:"icon,omitempty"`
	Header       string              `json:"header,omitempty"`
	OpenGraph    string              `json:"open_graph,omitempty"`
	Market       TokenSnapshot       `json:"market_data"`
	OnChain      OnChainData         `json:"on_chain_data"`
	Analysis     OpportunityAnalysis `json:"trading_analysis"`
	Trades       []TradeRecord       `json:"trades"`
	LastTrade    *TradeRecord        `json:"last_trade,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
