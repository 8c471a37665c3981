package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeTrades_Empty(t *testing.T) {
	assert.Equal(t, TradeAnalysis{}, AnalyzeTrades(nil))
}

func TestAnalyzeTrades(t *testing.T) {
	trades := []TradeSummary{
		{TokenAddress: "a", ROI: 20, HoldingMinutes: 3, BaseSpent: 0.1},
		{TokenAddress: "b", ROI: -10, HoldingMinutes: 2, BaseSpent: 0.1},
		{TokenAddress: "c", ROI: 0, HoldingMinutes: 4, BaseSpent: 0.1},
	}

	a := AnalyzeTrades(trades)

	assert.Equal(t, 3, a.TotalTrades)
	assert.Equal(t, 2, a.ProfitableTrades)
	assert.Equal(t, 1, a.UnprofitableTrades)
	assert.InDelta(t, 66.666, a.WinRate, 0.01)
	assert.InDelta(t, 10.0, a.TotalROI, 1e-9)
	assert.InDelta(t, 3.333, a.AverageROI, 0.01)
	assert.InDelta(t, 15.275, a.ROIStdDev, 0.01)
	assert.Equal(t, 20.0, a.BestTradeROI)
	assert.Equal(t, -10.0, a.WorstTradeROI)
	assert.InDelta(t, 3.0, a.AverageHolding, 1e-9)
	assert.InDelta(t, 0.3, a.TotalVolume, 1e-9)
	assert.InDelta(t, 0.1, a.AverageTradeSize, 1e-9)
}

func TestSummaryFromPosition(t *testing.T) {
	p := Position{
		TokenAddress: "tok", Status: StatusSold,
		EntryAge: 1, ExitAge: 4.5, EntryPrice: 2, ExitPrice: 3, ROI: 50,
		InitialLiquidity: 120_000, Buys24h: 70, BaseSpent: 0.1,
	}
	s := SummaryFromPosition(p, evalNow)

	assert.Equal(t, "tok", s.TokenAddress)
	assert.InDelta(t, 3.5, s.HoldingMinutes, 1e-9)
	assert.Equal(t, 50.0, s.ROI)
	assert.Equal(t, evalNow, s.RecordedAt)
}
