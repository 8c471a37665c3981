package domain

import "time"

// Umbrales del gate de entrada en tiempo real.
const (
	DefaultGateMinLiquidityUSD = 100_000
	DefaultGateMinBuys24h      = 50
	DefaultGateMaxAgeMinutes   = 4.0

	// DefaultExitAgeMinutes es la edad del par a la que se vende una posición.
	DefaultExitAgeMinutes = 4.5
)

// EntryGate decide qué snapshots del poll se compran.
// Es independiente de OpportunityScorer, que rankea los tokens guardados.
type EntryGate struct {
	MinLiquidityUSD float64
	MinBuys24h      int
	MaxAgeMinutes   float64
}

// DefaultEntryGate devuelve el gate con los umbrales de producción.
func DefaultEntryGate() EntryGate {
	return EntryGate{
		MinLiquidityUSD: DefaultGateMinLiquidityUSD,
		MinBuys24h:      DefaultGateMinBuys24h,
		MaxAgeMinutes:   DefaultGateMaxAgeMinutes,
	}
}

// DecisionMetrics desglosa cada chequeo de una TradeDecision.
type DecisionMetrics struct {
	LiquidityUSD       Metric `json:"liquidity_usd"`
	Buys24h            int    `json:"buys_24h"`
	HasEnoughLiquidity bool   `json:"has_enough_liquidity"`
	HasEnoughBuys      bool   `json:"has_enough_buys"`
	IsNewPair          bool   `json:"is_new_pair"`
}

// TradeDecision es el resultado efímero de evaluar un snapshot.
type TradeDecision struct {
	TokenAddress string          `json:"token_address"`
	Accept       bool            `json:"accept"`
	AgeMinutes   float64         `json:"age_minutes"`
	Metrics      DecisionMetrics `json:"metrics"`
}

// Evaluate aplica el gate a s en el instante now. Es pura: sin I/O ni reloj.
//
// Acepta si liquidez >= MinLiquidityUSD, compras 24h >= MinBuys24h y
// 0 <= edad <= MaxAgeMinutes. Si falta la liquidez, la ventana 24h o la fecha
// de creación, ese chequeo falla.
func (g EntryGate) Evaluate(s TokenSnapshot, now time.Time) TradeDecision {
	age := s.AgeMinutes(now)

	m := DecisionMetrics{
		LiquidityUSD:       s.Liquidity.USD,
		Buys24h:            s.Txns.H24.Buys,
		HasEnoughLiquidity: s.Liquidity.USD.AtLeast(g.MinLiquidityUSD),
		HasEnoughBuys:      s.Txns.H24.Present && s.Txns.H24.Buys >= g.MinBuys24h,
		// NaN falla ambas comparaciones.
		IsNewPair: age >= 0 && age <= g.MaxAgeMinutes,
	}

	return TradeDecision{
		TokenAddress: s.Address,
		Accept:       m.HasEnoughLiquidity && m.HasEnoughBuys && m.IsNewPair,
		AgeMinutes:   age,
		Metrics:      m,
	}
}
