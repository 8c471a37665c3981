package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuyPressure_ZeroTransactions(t *testing.T) {
	p := BuyPressure(TxnCounts{Buys: 0, Sells: 0, Present: true})
	assert.Equal(t, 0.0, p)
	assert.False(t, math.IsNaN(p))
}

func TestBuyPressure_Absent(t *testing.T) {
	assert.Equal(t, 0.0, BuyPressure(TxnCounts{Buys: 9}))
}

func TestBuyPressure_Ratio(t *testing.T) {
	assert.InDelta(t, 0.75, BuyPressure(TxnCounts{Buys: 75, Sells: 25, Present: true}), 1e-9)
}

func scoredSnapshot() TokenSnapshot {
	return TokenSnapshot{
		Liquidity: Liquidity{USD: Some(20_000)},
		Volume:    Windows{H24: Some(8_000)},
		MarketCap: Some(400_000),
		Txns:      TxnWindows{H24: TxnCounts{Buys: 70, Sells: 30, Present: true}},
	}
}

func TestOpportunityScorer_FullMarks(t *testing.T) {
	a := DefaultOpportunityScorer().Score(scoredSnapshot(), OnChainData{Holders: Some(250)}, evalNow)

	assert.Equal(t, 120, a.Score)
	assert.True(t, a.IsGoodTrade)
	assert.True(t, a.Metrics.HasEnoughHolders)
	assert.InDelta(t, 0.7, a.Metrics.BuyPressure, 1e-9)
}

func TestOpportunityScorer_WeakPressure(t *testing.T) {
	s := scoredSnapshot()
	s.Txns.H24 = TxnCounts{Buys: 55, Sells: 45, Present: true}

	a := DefaultOpportunityScorer().Score(s, OnChainData{}, evalNow)
	// 50 + 20 + 15 + 10
	assert.Equal(t, 95, a.Score)
}

func TestOpportunityScorer_GoodTradeThreshold(t *testing.T) {
	s := TokenSnapshot{
		Liquidity: Liquidity{USD: Some(20_000)},
		Volume:    Windows{H24: Some(8_000)},
	}
	a := DefaultOpportunityScorer().Score(s, OnChainData{}, evalNow)
	assert.Equal(t, 70, a.Score)
	assert.True(t, a.IsGoodTrade)

	s.Volume = Windows{}
	a = DefaultOpportunityScorer().Score(s, OnChainData{}, evalNow)
	assert.Equal(t, 50, a.Score)
	assert.False(t, a.IsGoodTrade)
}

func TestOpportunityScorer_AbsentMetricsScoreNothing(t *testing.T) {
	a := DefaultOpportunityScorer().Score(TokenSnapshot{}, OnChainData{}, evalNow)

	assert.Equal(t, 0, a.Score)
	assert.False(t, a.Metrics.IsEarlyOpportunity, "absent market cap must not count as below the ceiling")
	assert.False(t, a.Metrics.HasEnoughHolders)
}
