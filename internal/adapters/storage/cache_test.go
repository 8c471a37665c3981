package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dexsniper/internal/adapters/storage"
	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// Requiere un Redis real: DEXSNIPER_TEST_REDIS_URL=redis://localhost:6379/15
func setupCache(t *testing.T) (*storage.CachedStore, *storage.SQLiteStore) {
	t.Helper()
	url := os.Getenv("DEXSNIPER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DEXSNIPER_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := storage.NewRedisClient(ctx, url)
	require.NoError(t, err)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	primary, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	cached := storage.NewCachedStore(primary, rdb, time.Minute)
	t.Cleanup(func() { cached.Close() })
	return cached, primary
}

func TestCachedStore_ReadThroughAndInvalidate(t *testing.T) {
	cached, primary := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cached.SaveToken(ctx, makeDocument(bonk, 60)))
	got, err := cached.GetToken(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Analysis.Score)

	// Escritura directa al primario: la caché sigue sirviendo el valor viejo
	require.NoError(t, primary.SaveToken(ctx, makeDocument(bonk, 99)))
	got, err = cached.GetToken(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Analysis.Score)

	// AppendTrade por el wrapper invalida
	require.NoError(t, cached.AppendTrade(ctx, bonk, makeTrade(domain.SideBuy, time.Now())))
	got, err = cached.GetToken(ctx, bonk)
	require.NoError(t, err)
	assert.Equal(t, 99, got.Analysis.Score)
	assert.Len(t, got.Trades, 1)
}

func TestCachedStore_GoodTradesInvalidatedOnSave(t *testing.T) {
	cached, _ := setupCache(t)
	ctx := context.Background()

	good, err := cached.FindGoodTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, good)

	require.NoError(t, cached.SaveToken(ctx, makeDocument(wif, 90)))
	good, err = cached.FindGoodTrades(ctx)
	require.NoError(t, err)
	require.Len(t, good, 1)
	assert.Equal(t, wif, good[0].TokenAddress)
}

func TestCachedStore_AppendTradeRefreshesGoodTrades(t *testing.T) {
	cached, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cached.SaveToken(ctx, makeDocument(bonk, 85)))
	good, err := cached.FindGoodTrades(ctx)
	require.NoError(t, err)
	require.Len(t, good, 1)
	assert.Empty(t, good[0].Trades)

	require.NoError(t, cached.AppendTrade(ctx, bonk, makeTrade(domain.SideBuy, time.Now())))
	good, err = cached.FindGoodTrades(ctx)
	require.NoError(t, err)
	require.Len(t, good, 1)
	assert.Len(t, good[0].Trades, 1)
	assert.NotNil(t, good[0].LastTrade)
}

func TestCachedStore_MissPassesNotFound(t *testing.T) {
	cached, _ := setupCache(t)

	_, err := cached.GetToken(context.Background(), usdc)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
