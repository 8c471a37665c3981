// Package ledger contiene el wallet simulado: balance del activo base, tenencias
// por token e historial append-only de trades.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/ports"
)

const (
	// NativeMint es wrapped SOL, el activo base.
	NativeMint = "So11111111111111111111111111111111111111112"

	DefaultInitialBalance = 5.0
	DefaultSlippageBps    = 100
	defaultBaseDecimals   = 9
)

// Config controla el ledger. Los zero values usan los defaults.
type Config struct {
	InitialBalance float64
	SlippageBps    int
	BaseMint       string
	BaseDecimals   int32
}

// Observer recibe un aviso tras cada trade aplicado.
type Observer interface {
	LedgerTrade(side domain.Side, baseBalance float64)
}

// Ledger serializa toda mutación de balances con un único mutex. Los quotes se
// piden fuera del lock y los balances se revalidan dentro antes de aplicar.
type Ledger struct {
	quotes   ports.QuoteSource
	cfg      Config
	observer Observer
	now      func() time.Time

	mu      sync.Mutex
	base    decimal.Decimal
	tokens  map[string]decimal.Decimal
	history []domain.LedgerEntry
}

// New crea un ledger con cfg.InitialBalance del activo base.
func New(quotes ports.QuoteSource, cfg Config) *Ledger {
	if cfg.InitialBalance <= 0 {
		cfg.InitialBalance = DefaultInitialBalance
	}
	if cfg.SlippageBps <= 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}
	if cfg.BaseMint == "" {
		cfg.BaseMint = NativeMint
	}
	if cfg.BaseDecimals <= 0 {
		cfg.BaseDecimals = defaultBaseDecimals
	}
	return &Ledger{
		quotes: quotes,
		cfg:    cfg,
		now:    time.Now,
		base:   decimal.NewFromFloat(cfg.InitialBalance),
		tokens: make(map[string]decimal.Decimal),
	}
}

// SetObserver registra o. Llamar antes de empezar a operar.
func (l *Ledger) SetObserver(o Observer) {
	l.observer = o
}

// Buy gasta baseAmount del activo base en token.
func (l *Ledger) Buy(ctx context.Context, token string, baseAmount float64) (domain.Fill, error) {
	if token == "" || baseAmount <= 0 {
		return domain.Fill{}, fmt.Errorf("ledger.Buy: token %q amount %v: %w", token, baseAmount, domain.ErrInvalidInput)
	}
	spend := decimal.NewFromFloat(baseAmount)
	if err := l.checkBase(spend); err != nil {
		return domain.Fill{}, fmt.Errorf("ledger.Buy: %w", err)
	}

	quote, err := l.quotes.Quote(ctx, domain.QuoteRequest{
		InputMint:   l.cfg.BaseMint,
		OutputMint:  token,
		Amount:      uint64(spend.Shift(l.cfg.BaseDecimals).IntPart()),
		SlippageBps: l.cfg.SlippageBps,
	})
	if err != nil {
		return domain.Fill{}, fmt.Errorf("ledger.Buy: quote: %w", err)
	}
	if quote.OutAmount == 0 {
		return domain.Fill{}, fmt.Errorf("ledger.Buy: quote returned zero output: %w", domain.ErrInvalidInput)
	}
	received := rawAmount(quote.OutAmount)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Fill{}, fmt.Errorf("ledger.Buy: %w", err)
	}
	// Otro trade pudo gastar el balance mientras cotizábamos.
	if spend.GreaterThan(l.base) {
		return domain.Fill{}, fmt.Errorf("ledger.Buy: have %s need %s: %w", l.base, spend, domain.ErrInsufficientBalance)
	}

	l.base = l.base.Sub(spend)
	l.tokens[token] = l.tokens[token].Add(received)

	price := spend.Div(received).InexactFloat64()
	entry := domain.LedgerEntry{
		ID:             uuid.New().String(),
		Timestamp:      l.now().UTC(),
		Side:           domain.SideBuy,
		TokenAddress:   token,
		InputMint:      l.cfg.BaseMint,
		InputAmount:    spend.InexactFloat64(),
		OutputMint:     token,
		OutputAmount:   received.InexactFloat64(),
		Price:          price,
		PriceUSD:       quote.PriceUSD,
		PriceImpactPct: quote.PriceImpactPct,
		SlippageBps:    quote.SlippageBps,
	}
	l.history = append(l.history, entry)
	l.notify(domain.SideBuy)

	slog.Debug("ledger: buy applied", "token", token, "spent", entry.InputAmount, "received", entry.OutputAmount)
	return domain.Fill{Entry: entry, Price: price, OutputAmount: entry.OutputAmount}, nil
}

// Sell convierte tokenAmount unidades raw de token al activo base. El ROI se mide
// contra el último BUY del mismo token, 0 si no hay.
func (l *Ledger) Sell(ctx context.Context, token string, tokenAmount float64) (domain.Fill, error) {
	if token == "" || tokenAmount <= 0 {
		return domain.Fill{}, fmt.Errorf("ledger.Sell: token %q amount %v: %w", token, tokenAmount, domain.ErrInvalidInput)
	}
	// Las unidades raw son enteras.
	qty := decimal.NewFromFloat(tokenAmount).Floor()
	if qty.IsZero() {
		return domain.Fill{}, fmt.Errorf("ledger.Sell: amount below one unit: %w", domain.ErrInvalidInput)
	}
	if err := l.checkToken(token, qty); err != nil {
		return domain.Fill{}, fmt.Errorf("ledger.Sell: %w", err)
	}
	fill, err := l.sell(ctx, token, qty)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("ledger.Sell: %w", err)
	}
	return fill, nil
}

// SellAll vende la tenencia completa de token. La cantidad se lee y se debita
// como decimal exacto, sin pasar por float64.
func (l *Ledger) SellAll(ctx context.Context, token string) (domain.Fill, error) {
	if token == "" {
		return domain.Fill{}, fmt.Errorf("ledger.SellAll: empty token: %w", domain.ErrInvalidInput)
	}
	l.mu.Lock()
	qty := l.tokens[token]
	l.mu.Unlock()
	if !qty.IsPositive() {
		return domain.Fill{}, fmt.Errorf("ledger.SellAll: no holding of %s: %w", token, domain.ErrInsufficientBalance)
	}
	fill, err := l.sell(ctx, token, qty)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("ledger.SellAll: %w", err)
	}
	return fill, nil
}

// sell cotiza qty fuera del lock y lo aplica dentro, revalidando la tenencia.
func (l *Ledger) sell(ctx context.Context, token string, qty decimal.Decimal) (domain.Fill, error) {
	quote, err := l.quotes.Quote(ctx, domain.QuoteRequest{
		InputMint:   token,
		OutputMint:  l.cfg.BaseMint,
		Amount:      qty.BigInt().Uint64(),
		SlippageBps: l.cfg.SlippageBps,
	})
	if err != nil {
		return domain.Fill{}, fmt.Errorf("quote: %w", err)
	}
	received := rawAmount(quote.OutAmount).Shift(-l.cfg.BaseDecimals)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Fill{}, err
	}
	held := l.tokens[token]
	if qty.GreaterThan(held) {
		return domain.Fill{}, fmt.Errorf("have %s need %s: %w", held, qty, domain.ErrInsufficientBalance)
	}

	if rest := held.Sub(qty); rest.IsZero() {
		delete(l.tokens, token)
	} else {
		l.tokens[token] = rest
	}
	l.base = l.base.Add(received)

	price := received.Div(qty).InexactFloat64()
	roi := 0.0
	if buy, ok := l.lastBuyLocked(token); ok {
		roi = domain.ROI(buy.Price, price)
	}

	entry := domain.LedgerEntry{
		ID:             uuid.New().String(),
		Timestamp:      l.now().UTC(),
		Side:           domain.SideSell,
		TokenAddress:   token,
		InputMint:      token,
		InputAmount:    qty.InexactFloat64(),
		OutputMint:     l.cfg.BaseMint,
		OutputAmount:   received.InexactFloat64(),
		Price:          price,
		PriceUSD:       quote.PriceUSD,
		PriceImpactPct: quote.PriceImpactPct,
		SlippageBps:    quote.SlippageBps,
		ROI:            roi,
	}
	l.history = append(l.history, entry)
	l.notify(domain.SideSell)

	slog.Debug("ledger: sell applied", "token", token, "sold", qty.String(), "received", entry.OutputAmount, "roi_pct", roi)
	return domain.Fill{Entry: entry, Price: price, OutputAmount: entry.OutputAmount, ROI: roi}, nil
}

// Balances devuelve un snapshot del wallet.
func (l *Ledger) Balances() domain.Balances {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokens := make(map[string]float64, len(l.tokens))
	for addr, qty := range l.tokens {
		tokens[addr] = qty.InexactFloat64()
	}
	return domain.Balances{Base: l.base.InexactFloat64(), Tokens: tokens}
}

// TokenBalance devuelve la cantidad raw de token.
func (l *Ledger) TokenBalance(token string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens[token].InexactFloat64()
}

// History devuelve una copia de las entradas, la más antigua primero.
func (l *Ledger) History() []domain.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LedgerEntry, len(l.history))
	copy(out, l.history)
	return out
}

// checkBase falla antes de pedir ningún quote.
func (l *Ledger) checkBase(spend decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if spend.GreaterThan(l.base) {
		return fmt.Errorf("have %s need %s: %w", l.base, spend, domain.ErrInsufficientBalance)
	}
	return nil
}

func (l *Ledger) checkToken(token string, qty decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held := l.tokens[token]; qty.GreaterThan(held) {
		return fmt.Errorf("have %s need %s: %w", held, qty, domain.ErrInsufficientBalance)
	}
	return nil
}

func (l *Ledger) lastBuyLocked(token string) (domain.LedgerEntry, bool) {
	for i := len(l.history) - 1; i >= 0; i-- {
		e := l.history[i]
		if e.Side == domain.SideBuy && e.TokenAddress == token {
			return e, true
		}
	}
	return domain.LedgerEntry{}, false
}

func (l *Ledger) notify(side domain.Side) {
	if l.observer != nil {
		l.observer.LedgerTrade(side, l.base.InexactFloat64())
	}
}

func rawAmount(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
