package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dexsniper/internal/application/ledger"
	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// rawQuotes cotiza compras con buyOut unidades raw y ventas con sellOut lamports.
type rawQuotes struct {
	mu      sync.Mutex
	buyOut  uint64
	sellOut uint64
	sold    []uint64
}

func (q *rawQuotes) Quote(_ context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.buyOut
	if req.OutputMint == ledger.NativeMint {
		out = q.sellOut
		q.sold = append(q.sold, req.Amount)
	}
	return domain.Quote{
		InputMint: req.InputMint, OutputMint: req.OutputMint,
		InAmount: req.Amount, OutAmount: out, SlippageBps: req.SlippageBps,
	}, nil
}

func TestLifecycle_WithLedgerSellsLargeHoldingInFull(t *testing.T) {
	// 9 decimales y 0.1 SOL: la tenencia raw supera 2^53.
	const raw = 12_345_678_901_234_567
	quotes := &rawQuotes{buyOut: raw, sellOut: 130_000_000}
	wallet := ledger.New(quotes, ledger.Config{})

	clk := &fakeClock{now: t0}
	feed := &fakeFeed{snaps: []domain.TokenSnapshot{freshSnapshot(bonk)}}
	rep := &fakeReporter{}
	e := New(Config{
		PollInterval:    time.Hour,
		PacingDelay:     time.Millisecond,
		MonitorInterval: time.Millisecond,
	}, feed, wallet, rep, WithClock(clk.Now))

	res, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Accepted)

	clk.Advance(4 * time.Minute)
	e.Wait()

	st := e.Status()
	require.Len(t, st.Positions, 1)
	assert.Equal(t, domain.StatusSold, st.Positions[0].Status, st.Positions[0].FailureReason)
	assert.Equal(t, []string{bonk}, st.Settled)

	assert.Equal(t, []uint64{raw}, quotes.sold)
	assert.Equal(t, 0.0, wallet.TokenBalance(bonk))
	b := wallet.Balances()
	assert.NotContains(t, b.Tokens, bonk)
	assert.Equal(t, 5.03, b.Base)

	require.Equal(t, 1, rep.count())
	assert.InDelta(t, 30.0, rep.rows[0].ROI, 1e-6)
}
