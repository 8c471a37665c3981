package domain

import "time"

// Umbrales y pesos del score de oportunidad.
const (
	ScoreMinLiquidityUSD = 10_000
	ScoreMinVolume24h    = 5_000
	ScoreMinHolders      = 100
	ScoreMaxMarketCap    = 1_000_000

	WeightLiquidity        = 50
	WeightVolume           = 20
	WeightEarly            = 15
	WeightStrongPressure   = 20
	WeightPositivePressure = 10
	WeightHolders          = 15

	StrongBuyPressure   = 0.6
	PositiveBuyPressure = 0.5

	// GoodTradeScore es el score mínimo para marcar un token como good trade.
	GoodTradeScore = 70
)

// OnChainData es la metadata del mint leída on-chain.
type OnChainData struct {
	Decimals    int       `json:"decimals"`
	TotalSupply Metric    `json:"total_supply"`
	Holders     Metric    `json:"holders"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// OpportunityMetrics es el desglose de un OpportunityAnalysis.
type OpportunityMetrics struct {
	HasEnoughLiquidity bool    `json:"has_enough_liquidity"`
	HasGoodVolume      bool    `json:"has_good_volume"`
	IsEarlyOpportunity bool    `json:"is_early_opportunity"`
	BuyPressure        float64 `json:"buy_pressure"`
	PriceChange24h     Metric  `json:"price_change_24h"`
	HasEnoughHolders   bool    `json:"has_enough_holders"`
}

// OpportunityAnalysis es el ranking persistido de un token.
type OpportunityAnalysis struct {
	IsGoodTrade bool               `json:"is_good_trade"`
	Score       int                `json:"score"`
	Metrics     OpportunityMetrics `json:"metrics"`
	AnalyzedAt  time.Time          `json:"analyzed_at"`
}

// OpportunityScorer calcula el score ponderado para rankear tokens guardados.
type OpportunityScorer struct {
	MinLiquidityUSD float64
	MinVolume24h    float64
	MaxMarketCap    float64
	MinHolders      float64
	GoodScore       int
}

// DefaultOpportunityScorer devuelve el scorer con los umbrales de producción.
func DefaultOpportunityScorer() OpportunityScorer {
	return OpportunityScorer{
		MinLiquidityUSD: ScoreMinLiquidityUSD,
		MinVolume24h:    ScoreMinVolume24h,
		MaxMarketCap:    ScoreMaxMarketCap,
		MinHolders:      ScoreMinHolders,
		GoodScore:       GoodTradeScore,
	}
}

// Score evalúa s y su data on-chain. Las métricas ausentes no suman puntos.
func (sc OpportunityScorer) Score(s TokenSnapshot, chain OnChainData, now time.Time) OpportunityAnalysis {
	m := OpportunityMetrics{
		HasEnoughLiquidity: s.Liquidity.USD.AtLeast(sc.MinLiquidityUSD),
		HasGoodVolume:      s.Volume.H24.AtLeast(sc.MinVolume24h),
		IsEarlyOpportunity: s.MarketCap.AtMost(sc.MaxMarketCap),
		BuyPressure:        BuyPressure(s.Txns.H24),
		PriceChange24h:     s.PriceChange.H24,
		HasEnoughHolders:   chain.Holders.AtLeast(sc.MinHolders),
	}

	score := 0
	if m.HasEnoughLiquidity {
		score += WeightLiquidity
	}
	if m.HasGoodVolume {
		score += WeightVolume
	}
	if m.IsEarlyOpportunity {
		score += WeightEarly
	}
	switch {
	case m.BuyPressure > StrongBuyPressure:
		score += WeightStrongPressure
	case m.BuyPressure > PositiveBuyPressure:
		score += WeightPositivePressure
	}
	if m.HasEnoughHolders {
		score += WeightHolders
	}

	return OpportunityAnalysis{
		IsGoodTrade: score >= sc.GoodScore,
		Score:       score,
		Metrics:     m,
		AnalyzedAt:  now.UTC(),
	}
}

// BuyPressure devuelve buys/(buys+sells), o 0 si no hubo transacciones.
func BuyPressure(c TxnCounts) float64 {
	total := c.Buys + c.Sells
	if !c.Present || total <= 0 {
		return 0
	}
	return float64(c.Buys) / float64(total)
}
