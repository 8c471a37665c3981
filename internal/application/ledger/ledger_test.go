package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

// fakeQuotes devuelve buyOut tokens raw en cada compra y sellOut lamports en cada venta.
type fakeQuotes struct {
	mu      sync.Mutex
	buyOut  uint64
	sellOut uint64
	err     error
	calls   atomic.Int32
	last    domain.QuoteRequest
}

func (f *fakeQuotes) Quote(_ context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	out := f.buyOut
	if req.OutputMint == NativeMint {
		out = f.sellOut
	}
	return domain.Quote{
		InputMint: req.InputMint, OutputMint: req.OutputMint,
		InAmount: req.Amount, OutAmount: out,
		PriceImpactPct: 0.01, SlippageBps: req.SlippageBps,
	}, nil
}

type recordingObserver struct {
	sides []domain.Side
}

func (o *recordingObserver) LedgerTrade(side domain.Side, _ float64) {
	o.sides = append(o.sides, side)
}

func TestBuy_DebitsBaseAndCreditsToken(t *testing.T) {
	q := &fakeQuotes{buyOut: 1000}
	l := New(q, Config{})

	fill, err := l.Buy(context.Background(), bonk, 0.1)
	require.NoError(t, err)

	b := l.Balances()
	assert.Equal(t, 4.9, b.Base)
	assert.Equal(t, 1000.0, b.Token(bonk))
	assert.InDelta(t, 0.0001, fill.Price, 1e-15)
	assert.Equal(t, 1000.0, fill.OutputAmount)

	assert.Equal(t, uint64(100_000_000), q.last.Amount)
	assert.Equal(t, NativeMint, q.last.InputMint)
	assert.Equal(t, DefaultSlippageBps, q.last.SlippageBps)

	hist := l.History()
	require.Len(t, hist, 1)
	assert.Equal(t, domain.SideBuy, hist[0].Side)
	assert.NotEmpty(t, hist[0].ID)
	assert.Equal(t, 0.1, hist[0].InputAmount)
}

func TestBuy_InsufficientBalanceLeavesStateUntouched(t *testing.T) {
	q := &fakeQuotes{buyOut: 1000}
	l := New(q, Config{})

	_, err := l.Buy(context.Background(), bonk, 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.Equal(t, 5.0, l.Balances().Base)
	assert.Empty(t, l.History())
	assert.Equal(t, int32(0), q.calls.Load(), "no quote should be requested")
}

func TestBuy_QuoteFailureLeavesStateUntouched(t *testing.T) {
	q := &fakeQuotes{err: domain.ErrTransient}
	l := New(q, Config{})

	_, err := l.Buy(context.Background(), bonk, 0.1)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 5.0, l.Balances().Base)
	assert.Empty(t, l.History())
}

func TestBuy_InvalidInput(t *testing.T) {
	l := New(&fakeQuotes{buyOut: 1}, Config{})

	_, err := l.Buy(context.Background(), bonk, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = l.Buy(context.Background(), "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSell_WithoutHoldingsFails(t *testing.T) {
	l := New(&fakeQuotes{sellOut: 1}, Config{})

	_, err := l.Sell(context.Background(), bonk, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, 5.0, l.Balances().Base)
}

func TestSell_MoreThanHeldFails(t *testing.T) {
	l := New(&fakeQuotes{buyOut: 1000, sellOut: 1}, Config{})
	_, err := l.Buy(context.Background(), bonk, 0.1)
	require.NoError(t, err)

	_, err = l.Sell(context.Background(), bonk, 1001)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, 1000.0, l.TokenBalance(bonk))
}

func TestRoundTrip_ROI(t *testing.T) {
	// compra 0.1 SOL → 1000 tokens (P1 = 0.0001), vende 1000 → 0.15 SOL (P2 = 0.00015)
	q := &fakeQuotes{buyOut: 1000, sellOut: 150_000_000}
	obs := &recordingObserver{}
	l := New(q, Config{})
	l.SetObserver(obs)

	_, err := l.Buy(context.Background(), bonk, 0.1)
	require.NoError(t, err)
	fill, err := l.Sell(context.Background(), bonk, l.TokenBalance(bonk))
	require.NoError(t, err)

	assert.InDelta(t, 50.0, fill.ROI, 1e-9)
	assert.InDelta(t, 0.15, fill.OutputAmount, 1e-12)

	b := l.Balances()
	assert.Equal(t, 5.05, b.Base)
	assert.NotContains(t, b.Tokens, bonk)

	hist := l.History()
	require.Len(t, hist, 2)
	assert.Equal(t, domain.SideSell, hist[1].Side)
	assert.InDelta(t, 50.0, hist[1].ROI, 1e-9)
	assert.Equal(t, []domain.Side{domain.SideBuy, domain.SideSell}, obs.sides)
}

func TestSellAll_LargeRawHoldingSellsExactly(t *testing.T) {
	// 12345678901234567 no es representable en float64.
	const raw = 12_345_678_901_234_567
	q := &fakeQuotes{buyOut: raw, sellOut: 120_000_000}
	l := New(q, Config{})

	_, err := l.Buy(context.Background(), bonk, 0.1)
	require.NoError(t, err)

	fill, err := l.SellAll(context.Background(), bonk)
	require.NoError(t, err)
	assert.Equal(t, uint64(raw), q.last.Amount)
	assert.InDelta(t, 0.12, fill.OutputAmount, 1e-12)
	assert.InDelta(t, 20.0, fill.ROI, 1e-6)

	b := l.Balances()
	assert.NotContains(t, b.Tokens, bonk)
	assert.Equal(t, 5.02, b.Base)
	assert.Equal(t, 0.0, l.TokenBalance(bonk))
}

func TestSellAll_WithoutHoldingsFails(t *testing.T) {
	q := &fakeQuotes{sellOut: 1}
	l := New(q, Config{})

	_, err := l.SellAll(context.Background(), bonk)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int32(0), q.calls.Load())
	assert.Empty(t, l.History())
}

func TestSell_MatchesMostRecentBuy(t *testing.T) {
	q := &fakeQuotes{buyOut: 1000}
	l := New(q, Config{})

	_, err := l.Buy(context.Background(), bonk, 0.1) // P = 0.0001
	require.NoError(t, err)
	q.buyOut = 500
	_, err = l.Buy(context.Background(), bonk, 0.1) // P = 0.0002
	require.NoError(t, err)

	q.sellOut = 300_000_000 // 1500 tokens → 0.3 SOL, P = 0.0002
	fill, err := l.Sell(context.Background(), bonk, 1500)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, fill.ROI, 1e-9)
}

func TestSell_NoPriorBuyYieldsZeroROI(t *testing.T) {
	l := New(&fakeQuotes{sellOut: 1_000_000}, Config{})
	// Tenencia sin BUY previo, p.ej. un airdrop.
	l.tokens[bonk] = decimal.NewFromInt(10)

	fill, err := l.Sell(context.Background(), bonk, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fill.ROI)
}

func TestBuy_CancelledContextDoesNotMutate(t *testing.T) {
	l := New(&fakeQuotes{buyOut: 1000}, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Buy(ctx, bonk, 0.1)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 5.0, l.Balances().Base)
}

func TestConcurrentBuys_NeverOverspend(t *testing.T) {
	l := New(&fakeQuotes{buyOut: 10}, Config{InitialBalance: 1})

	var wg sync.WaitGroup
	var ok, rejected atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Buy(context.Background(), bonk, 0.1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(40), rejected.Load())
	assert.Equal(t, 0.0, l.Balances().Base)
	assert.Equal(t, 100.0, l.TokenBalance(bonk))
	assert.Len(t, l.History(), 10)
}
