package dexscreener

import (
	"time"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// mapSnapshot combina un perfil con su primer par.
func mapSnapshot(p tokenProfile, pr pair, now time.Time) domain.TokenSnapshot {
	s := domain.TokenSnapshot{
		Address:      p.TokenAddress,
		ChainID:      p.ChainID,
		Name:         pr.BaseToken.Name,
		Symbol:       pr.BaseToken.Symbol,
		Description:  p.Description,
		URL:          p.URL,
		DexID:        pr.DexID,
		PairAddress:  pr.PairAddress,
		PriceUSD:     pr.PriceUSD,
		PriceNative:  pr.PriceNative,
		Volume:       pr.Volume,
		PriceChange:  pr.PriceChange,
		MarketCap:    pr.MarketCap,
		FDV:          pr.FDV,
		DiscoveredAt: now.UTC(),
		Txns: domain.TxnWindows{
			M5:  mapTxns(pr.Txns["m5"]),
			H1:  mapTxns(pr.Txns["h1"]),
			H6:  mapTxns(pr.Txns["h6"]),
			H24: mapTxns(pr.Txns["h24"]),
		},
	}
	if pr.Liquidity != nil {
		s.Liquidity = domain.Liquidity{
			USD:   pr.Liquidity.USD,
			Base:  pr.Liquidity.Base,
			Quote: pr.Liquidity.Quote,
		}
	}
	if pr.Info != nil {
		s.Info = domain.PairInfo{
			ImageURL:  pr.Info.ImageURL,
			Header:    pr.Info.Header,
			OpenGraph: pr.Info.OpenGraph,
		}
	}
	// Sin info en el par se usan las imágenes del perfil.
	if s.Info.ImageURL == "" {
		s.Info.ImageURL = p.Icon
	}
	if s.Info.Header == "" {
		s.Info.Header = p.Header
	}
	// pairCreatedAt viene en milisegundos epoch.
	if pr.PairCreatedAt > 0 {
		s.PairCreatedAt = time.UnixMilli(pr.PairCreatedAt).UTC()
	}
	return s
}

func mapTxns(t *txnCount) domain.TxnCounts {
	if t == nil {
		return domain.TxnCounts{}
	}
	return domain.TxnCounts{Buys: t.Buys, Sells: t.Sells, Present: true}
}
