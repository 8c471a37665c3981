// Package jupiter es la fuente de quotes sobre el agregador Jupiter.
package jupiter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/dexsniper/internal/adapters/httpclient"
	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const (
	defaultBaseURL     = "https://quote-api.jup.ag/v6"
	defaultSlippageBps = 100
	quoteRatePerSec    = 5
	defaultTimeout     = 10 * time.Second
)

// quoteResponse es el subconjunto de GET /quote que usamos. Los montos vienen como string.
type quoteResponse struct {
	InputMint      string        `json:"inputMint"`
	InAmount       string        `json:"inAmount"`
	OutputMint     string        `json:"outputMint"`
	OutAmount      string        `json:"outAmount"`
	SlippageBps    int           `json:"slippageBps"`
	PriceImpactPct domain.Metric `json:"priceImpactPct"`
	PriceUSD       domain.Metric `json:"priceUsd"`
}

// Client pide quotes. No reintenta: un quote fallido cancela el trade.
type Client struct {
	base string
	http *httpclient.Client
}

// NewClient crea un Client contra baseURL, o el endpoint público si está vacío.
func NewClient(baseURL string, ratePerSec float64) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if ratePerSec <= 0 {
		ratePerSec = quoteRatePerSec
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpclient.New(ratePerSec, 2, httpclient.WithTimeout(defaultTimeout)),
	}
}

func (c *Client) Quote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	if req.InputMint == "" || req.OutputMint == "" || req.Amount == 0 {
		return domain.Quote{}, fmt.Errorf("jupiter.Quote: %w", domain.ErrInvalidInput)
	}
	slippage := req.SlippageBps
	if slippage <= 0 {
		slippage = defaultSlippageBps
	}

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippage))

	var raw quoteResponse
	if err := c.http.GetJSON(ctx, c.base+"/quote?"+q.Encode(), &raw); err != nil {
		return domain.Quote{}, fmt.Errorf("jupiter.Quote: %w", err)
	}

	out, err := parseRawAmount(raw.OutAmount)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("jupiter.Quote: parse outAmount %q: %w", raw.OutAmount, err)
	}
	in := req.Amount
	if raw.InAmount != "" {
		if v, err := parseRawAmount(raw.InAmount); err == nil {
			in = v
		}
	}
	if raw.SlippageBps > 0 {
		slippage = raw.SlippageBps
	}

	return domain.Quote{
		InputMint:      req.InputMint,
		OutputMint:     req.OutputMint,
		InAmount:       in,
		OutAmount:      out,
		PriceImpactPct: raw.PriceImpactPct.Or(0),
		PriceUSD:       raw.PriceUSD,
		SlippageBps:    slippage,
	}, nil
}

// parseRawAmount convierte un monto raw en string a uint64. Rechaza fracciones,
// negativos y valores fuera de rango.
func parseRawAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not a raw unit amount: %w", domain.ErrInvalidInput)
	}
	n := d.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount out of range: %w", domain.ErrInvalidInput)
	}
	return n.Uint64(), nil
}
