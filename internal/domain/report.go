package domain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TradeSummary es el resultado por token que recibe el reporter.
type TradeSummary struct {
	RecordedAt       time.Time `json:"recorded_at"`
	TokenAddress     string    `json:"token_address"`
	EntryAge         float64   `json:"entry_age"`
	ExitAge          float64   `json:"exit_age"`
	HoldingMinutes   float64   `json:"holding_minutes"`
	InitialLiquidity float64   `json:"initial_liquidity"`
	Buys24h          int       `json:"buys_24h"`
	EntryPrice       float64   `json:"entry_price"`
	ExitPrice        float64   `json:"exit_price"`
	ROI              float64   `json:"roi"`
	BaseSpent        float64   `json:"base_spent"`
}

// SummaryFromPosition construye la fila del reporte para una posición SOLD.
func SummaryFromPosition(p Position, now time.Time) TradeSummary {
	return TradeSummary{
		RecordedAt:       now.UTC(),
		TokenAddress:     p.TokenAddress,
		EntryAge:         p.EntryAge,
		ExitAge:          p.ExitAge,
		HoldingMinutes:   p.HoldingMinutes(),
		InitialLiquidity: p.InitialLiquidity,
		Buys24h:          p.Buys24h,
		EntryPrice:       p.EntryPrice,
		ExitPrice:        p.ExitPrice,
		ROI:              p.ROI,
		BaseSpent:        p.BaseSpent,
	}
}

// TradeAnalysis agrega un conjunto de TradeSummary.
type TradeAnalysis struct {
	TotalTrades        int     `json:"total_trades"`
	ProfitableTrades   int     `json:"profitable_trades"`
	UnprofitableTrades int     `json:"unprofitable_trades"`
	WinRate            float64 `json:"win_rate"`
	TotalROI           float64 `json:"total_roi"`
	AverageROI         float64 `json:"average_roi"`
	ROIStdDev          float64 `json:"roi_std_dev"`
	BestTradeROI       float64 `json:"best_trade_roi"`
	WorstTradeROI      float64 `json:"worst_trade_roi"`
	AverageHolding     float64 `json:"average_holding_minutes"`
	TotalVolume        float64 `json:"total_volume"`
	AverageTradeSize   float64 `json:"average_trade_size"`
}

// AnalyzeTrades calcula las estadísticas. ROI >= 0 cuenta como rentable.
func AnalyzeTrades(trades []TradeSummary) TradeAnalysis {
	n := len(trades)
	if n == 0 {
		return TradeAnalysis{}
	}

	rois := make([]float64, n)
	holdings := make([]float64, n)
	a := TradeAnalysis{
		TotalTrades:   n,
		BestTradeROI:  math.Inf(-1),
		WorstTradeROI: math.Inf(1),
	}
	for i, t := range trades {
		rois[i] = t.ROI
		holdings[i] = t.HoldingMinutes
		if t.ROI >= 0 {
			a.ProfitableTrades++
		} else {
			a.UnprofitableTrades++
		}
		a.TotalROI += t.ROI
		a.TotalVolume += t.BaseSpent
		a.BestTradeROI = math.Max(a.BestTradeROI, t.ROI)
		a.WorstTradeROI = math.Min(a.WorstTradeROI, t.ROI)
	}

	a.WinRate = float64(a.ProfitableTrades) / float64(n) * 100
	a.AverageROI = stat.Mean(rois, nil)
	if n > 1 {
		a.ROIStdDev = stat.StdDev(rois, nil)
	}
	a.AverageHolding = stat.Mean(holdings, nil)
	a.AverageTradeSize = a.TotalVolume / float64(n)
	return a
}
