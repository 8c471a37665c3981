package dexscreener

import "github.com/alejandrodnm/dexsniper/internal/domain"

// DTOs crudos de DexScreener. Solo se usan aquí; mapping.go los convierte.

// tokenProfile es una entrada de GET /token-profiles/latest/v1.
type tokenProfile struct {
	URL          string `json:"url"`
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	Header       string `json:"header"`
	Description  string `json:"description"`
}

// pairsResponse es el body de GET /latest/dex/tokens/{address}.
type pairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []pair `json:"pairs"`
}

type pair struct {
	ChainID       string               `json:"chainId"`
	DexID         string               `json:"dexId"`
	URL           string               `json:"url"`
	PairAddress   string               `json:"pairAddress"`
	BaseToken     pairToken            `json:"baseToken"`
	QuoteToken    pairToken            `json:"quoteToken"`
	PriceNative   domain.Metric        `json:"priceNative"`
	PriceUSD      domain.Metric        `json:"priceUsd"`
	Txns          map[string]*txnCount `json:"txns"`
	Volume        domain.Windows       `json:"volume"`
	PriceChange   domain.Windows       `json:"priceChange"`
	Liquidity     *liquidity           `json:"liquidity"`
	FDV           domain.Metric        `json:"fdv"`
	MarketCap     domain.Metric        `json:"marketCap"`
	PairCreatedAt int64                `json:"pairCreatedAt"`
	Info          *pairInfo            `json:"info"`
}

type pairInfo struct {
	ImageURL  string `json:"imageUrl"`
	Header    string `json:"header"`
	OpenGraph string `json:"openGraph"`
}

type pairToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type txnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type liquidity struct {
	USD   domain.Metric `json:"usd"`
	Base  domain.Metric `json:"base"`
	Quote domain.Metric `json:"quote"`
}
