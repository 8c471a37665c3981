package dexscreener_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dexsniper/internal/adapters/dexscreener"
	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const (
	bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	wif  = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	usdt = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

const profilesJSON = `[
  {"chainId": "solana", "tokenAddress": "` + bonk + `", "description": "The PEPE of solana", "url": "https://dexscreener.com/solana/bonk", "header": "https://cdn.dexscreener.com/bonk-header.png"},
  {"chainId": "ethereum", "tokenAddress": "0x6982508145454ce325ddbe47a25d4ec3d2311933", "description": "pepe on eth"},
  {"chainId": "solana", "tokenAddress": "` + usdc + `", "description": "regulated stablecoin"},
  {"chainId": "solana", "tokenAddress": "not-a-mint", "description": "meme"},
  {"chainId": "solana", "tokenAddress": "` + wif + `", "description": "dog wif hat"},
  {"chainId": "solana", "tokenAddress": "` + usdt + `", "description": "to the moon"},
  {"chainId": "solana", "tokenAddress": "` + bonk + `", "description": "meme again"}
]`

const bonkPairsJSON = `{
  "schemaVersion": "1.0.0",
  "pairs": [{
    "chainId": "solana", "dexId": "raydium", "pairAddress": "pairBonk",
    "baseToken": {"address": "` + bonk + `", "name": "Bonk", "symbol": "BONK"},
    "priceNative": "0.0000001", "priceUsd": "0.000021",
    "txns": {"m5": {"buys": 3, "sells": 1}, "h24": {"buys": 120, "sells": 40}},
    "volume": {"h24": 95000.5, "h6": 20000},
    "priceChange": {"h24": -3.5},
    "liquidity": {"usd": 150000, "base": 1000000, "quote": 600},
    "fdv": 900000, "marketCap": 850000,
    "pairCreatedAt": 1767225600000,
    "info": {"imageUrl": "https://cdn.dexscreener.com/bonk.png", "openGraph": "https://cdn.dexscreener.com/bonk-og.png"}
  }, {
    "chainId": "solana", "dexId": "orca", "pairAddress": "ignored"
  }]
}`

func newServer(t *testing.T, profileFailures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var profileCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token-profiles/latest/v1":
			if profileCalls.Add(1) <= profileFailures {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(profilesJSON))
		case strings.HasSuffix(r.URL.Path, bonk):
			w.Write([]byte(bonkPairsJSON))
		case strings.HasSuffix(r.URL.Path, wif):
			w.Write([]byte(`{"schemaVersion": "1.0.0", "pairs": null}`))
		case strings.HasSuffix(r.URL.Path, usdt):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &profileCalls
}

func testConfig(base string) dexscreener.Config {
	return dexscreener.Config{
		BaseURL:            base,
		RetryBase:          time.Millisecond,
		ProfilesRatePerSec: 1000,
		PairsRatePerSec:    1000,
	}
}

func TestPoll_FiltersAndEnriches(t *testing.T) {
	srv, _ := newServer(t, 0)
	feed := dexscreener.NewFeed(testConfig(srv.URL))

	snaps, err := feed.Poll(context.Background())
	require.NoError(t, err)

	// wif no tiene pares, usdt falla al enriquecer y el resto se filtra.
	require.Len(t, snaps, 1)
	s := snaps[0]
	assert.Equal(t, bonk, s.Address)
	assert.Equal(t, "solana", s.ChainID)
	assert.Equal(t, "BONK", s.Symbol)
	assert.Equal(t, "raydium", s.DexID)
	assert.Equal(t, "pairBonk", s.PairAddress)
	assert.Equal(t, domain.Some(150000), s.Liquidity.USD)
	assert.Equal(t, domain.TxnCounts{Buys: 120, Sells: 40, Present: true}, s.Txns.H24)
	assert.False(t, s.Txns.H1.Present)
	assert.InDelta(t, 95000.5, s.Volume.H24.Value, 1e-9)
	assert.False(t, s.Volume.M5.Present)
	assert.InDelta(t, 0.000021, s.PriceUSD.Value, 1e-12)
	assert.Equal(t, domain.Some(850000), s.MarketCap)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), s.PairCreatedAt)
	assert.False(t, s.DiscoveredAt.IsZero())

	// La cabecera falta en el par y sale del perfil.
	assert.Equal(t, domain.PairInfo{
		ImageURL:  "https://cdn.dexscreener.com/bonk.png",
		Header:    "https://cdn.dexscreener.com/bonk-header.png",
		OpenGraph: "https://cdn.dexscreener.com/bonk-og.png",
	}, s.Info)
}

func TestPoll_RetriesProfileListing(t *testing.T) {
	srv, calls := newServer(t, 2)
	feed := dexscreener.NewFeed(testConfig(srv.URL))

	snaps, err := feed.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoll_FailsAfterRetriesExhausted(t *testing.T) {
	srv, calls := newServer(t, 100)
	feed := dexscreener.NewFeed(testConfig(srv.URL))

	_, err := feed.Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	// primer intento + 3 reintentos
	assert.Equal(t, int32(4), calls.Load())
}

func TestPoll_CustomKeywords(t *testing.T) {
	srv, _ := newServer(t, 0)
	cfg := testConfig(srv.URL)
	cfg.Keywords = []string{"WIF"}
	feed := dexscreener.NewFeed(cfg)

	// Solo wif pasa el filtro y no tiene pares.
	snaps, err := feed.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
