package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dexsniper/internal/adapters/storage"
	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const (
	bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	wif  = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func makeDocument(addr string, score int) domain.TokenDocument {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.TokenDocument{
		TokenAddress: addr,
		Market: domain.TokenSnapshot{
			Address:   addr,
			ChainID:   "solana",
			Symbol:    "MEME",
			Liquidity: domain.Liquidity{USD: domain.Some(25_000)},
			MarketCap: domain.Metric{},
		},
		OnChain: domain.OnChainData{Decimals: 5, TotalSupply: domain.Some(1e12), FetchedAt: now},
		Analysis: domain.OpportunityAnalysis{
			Score:       score,
			IsGoodTrade: score >= domain.GoodTradeScore,
			AnalyzedAt:  now,
		},
		UpdatedAt: now,
	}
}

func makeTrade(side domain.Side, ts time.Time) domain.TradeRecord {
	return domain.TradeRecord{
		Side:         side,
		InputMint:    "So11111111111111111111111111111111111111112",
		InputAmount:  0.1,
		OutputMint:   bonk,
		OutputAmount: 1000,
		Price:        0.0001,
		SlippageBps:  100,
		Status:       domain.TradeCompleted,
		Timestamp:    ts,
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	doc := makeDocument(bonk, 85)
	doc.Icon = "https://cdn.dexscreener.com/bonk.png"
	doc.Market.Info = domain.PairInfo{ImageURL: doc.Icon, OpenGraph: "https://cdn.dexscreener.com/bonk-og.png"}
	require.NoError(t, db.SaveToken(ctx, doc))

	got, err := db.GetToken(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, bonk, got.TokenAddress)
	assert.Equal(t, doc.Icon, got.Icon)
	assert.Equal(t, doc.Market.Info, got.Market.Info)
	assert.Equal(t, 85, got.Analysis.Score)
	assert.Equal(t, 25_000.0, got.Market.Liquidity.USD.Value)
	assert.False(t, got.Market.MarketCap.Present, "absent metrics stay absent")
	assert.Empty(t, got.Trades)
	assert.Nil(t, got.LastTrade)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetToken(context.Background(), bonk)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_AppendTradeKeepsHistoryAcrossSaves(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	t0 := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveToken(ctx, makeDocument(bonk, 50)))
	require.NoError(t, db.AppendTrade(ctx, bonk, makeTrade(domain.SideBuy, t0)))
	require.NoError(t, db.AppendTrade(ctx, bonk, makeTrade(domain.SideSell, t0.Add(time.Minute))))

	// Un nuevo análisis no debe borrar el historial
	require.NoError(t, db.SaveToken(ctx, makeDocument(bonk, 90)))

	got, err := db.GetToken(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Analysis.Score)
	require.Len(t, got.Trades, 2)
	assert.Equal(t, domain.SideBuy, got.Trades[0].Side)
	require.NotNil(t, got.LastTrade)
	assert.Equal(t, domain.SideSell, got.LastTrade.Side)
	assert.True(t, got.LastTrade.Timestamp.Equal(t0.Add(time.Minute)))
}

func TestSQLiteStore_FindGoodTradesOrderedByScore(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveToken(ctx, makeDocument(bonk, 75)))
	require.NoError(t, db.SaveToken(ctx, makeDocument(wif, 95)))
	require.NoError(t, db.SaveToken(ctx, makeDocument(usdc, 40)))

	good, err := db.FindGoodTrades(ctx)
	require.NoError(t, err)
	require.Len(t, good, 2)
	assert.Equal(t, wif, good[0].TokenAddress)
	assert.Equal(t, bonk, good[1].TokenAddress)
}

func TestSQLiteStore_FindGoodTradesCarriesTradeHistory(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveToken(ctx, makeDocument(bonk, 80)))
	require.NoError(t, db.SaveToken(ctx, makeDocument(wif, 90)))
	require.NoError(t, db.AppendTrade(ctx, bonk, makeTrade(domain.SideBuy, ts)))

	good, err := db.FindGoodTrades(ctx)
	require.NoError(t, err)
	require.Len(t, good, 2)
	assert.Empty(t, good[0].Trades)
	assert.Nil(t, good[0].LastTrade)
	require.Len(t, good[1].Trades, 1)
	require.NotNil(t, good[1].LastTrade)
	assert.Equal(t, domain.SideBuy, good[1].LastTrade.Side)
}

func TestSQLiteStore_FindGoodTradesEmpty(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	good, err := db.FindGoodTrades(context.Background())
	require.NoError(t, err)
	assert.Empty(t, good)
}

func TestJournal_RecordIsIdempotentPerToken(t *testing.T) {
	j, err := storage.NewJournal(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	s := domain.TradeSummary{
		RecordedAt: time.Now().UTC(), TokenAddress: bonk,
		EntryAge: 1, ExitAge: 4.5, HoldingMinutes: 3.5,
		EntryPrice: 0.0001, ExitPrice: 0.00012, ROI: 20, BaseSpent: 0.1,
	}
	require.NoError(t, j.RecordTrade(ctx, s))
	s.ROI = -99
	require.NoError(t, j.RecordTrade(ctx, s))

	trades, err := j.Trades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.InDelta(t, 20.0, trades[0].ROI, 1e-9)
	assert.InDelta(t, 3.5, trades[0].HoldingMinutes, 1e-9)
	assert.False(t, trades[0].RecordedAt.IsZero())
}

func TestJournal_Analysis(t *testing.T) {
	j, err := storage.NewJournal(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	t0 := time.Now().UTC()
	for i, row := range []struct {
		addr string
		roi  float64
	}{{bonk, 20}, {wif, -10}, {usdc, 0}} {
		require.NoError(t, j.RecordTrade(ctx, domain.TradeSummary{
			RecordedAt:     t0.Add(time.Duration(i) * time.Second),
			TokenAddress:   row.addr,
			HoldingMinutes: 3,
			ROI:            row.roi,
			BaseSpent:      0.1,
		}))
	}

	a, err := j.Analysis(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, a.TotalTrades)
	assert.Equal(t, 2, a.ProfitableTrades)
	assert.Equal(t, 1, a.UnprofitableTrades)
	assert.InDelta(t, 10.0, a.TotalROI, 1e-9)
	assert.InDelta(t, 20.0, a.BestTradeROI, 1e-9)
	assert.InDelta(t, -10.0, a.WorstTradeROI, 1e-9)
	assert.InDelta(t, 0.3, a.TotalVolume, 1e-9)
}
