// Package dexscreener implementa el feed de descubrimiento sobre la API pública de DexScreener.
package dexscreener

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/alejandrodnm/dexsniper/internal/adapters/httpclient"
	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const (
	defaultBaseURL = "https://api.dexscreener.com"
	defaultChainID = "solana"

	// Límites públicos: profiles 60/min, pairs 300/min.
	profilesRatePerSec = 0.5
	pairsRatePerSec    = 3

	defaultMaxRetries = 3
	defaultRetryBase  = 2 * time.Second
	defaultTimeout    = 10 * time.Second
)

// Config controla el feed. Los zero values usan los defaults de producción.
type Config struct {
	BaseURL    string
	ChainID    string
	Keywords   []string
	MaxRetries int
	RetryBase  time.Duration
	Timeout    time.Duration

	// Overrides de rate, requests por segundo.
	ProfilesRatePerSec float64
	PairsRatePerSec    float64
}

// Feed lee los últimos perfiles y enriquece los que pasan el filtro con datos del par.
type Feed struct {
	cfg      Config
	profiles *httpclient.Client
	pairs    *httpclient.Client
	now      func() time.Time
}

// NewFeed construye un Feed. El listado de perfiles se reintenta con backoff;
// las requests de enriquecimiento no.
func NewFeed(cfg Config) *Feed {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ChainID == "" {
		cfg.ChainID = defaultChainID
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = domain.DefaultKeywords
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaultRetryBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ProfilesRatePerSec <= 0 {
		cfg.ProfilesRatePerSec = profilesRatePerSec
	}
	if cfg.PairsRatePerSec <= 0 {
		cfg.PairsRatePerSec = pairsRatePerSec
	}
	return &Feed{
		cfg: cfg,
		profiles: httpclient.New(cfg.ProfilesRatePerSec, 1,
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithRetry(cfg.MaxRetries, cfg.RetryBase),
		),
		pairs: httpclient.New(cfg.PairsRatePerSec, 1, httpclient.WithTimeout(cfg.Timeout)),
		now:   time.Now,
	}
}

// Poll devuelve los snapshots enriquecidos del lote, en orden del listado.
// Solo un fallo del listado hace fallar el poll.
func (f *Feed) Poll(ctx context.Context) ([]domain.TokenSnapshot, error) {
	profiles, err := f.fetchProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("dexscreener.Poll: %w", err)
	}

	candidates := f.filter(profiles)
	slog.Debug("dexscreener: profiles filtered",
		"fetched", len(profiles),
		"candidates", len(candidates),
	)

	snapshots := make([]domain.TokenSnapshot, 0, len(candidates))
	for _, p := range candidates {
		if ctx.Err() != nil {
			return snapshots, ctx.Err()
		}
		pr, ok, err := f.fetchPair(ctx, p.TokenAddress)
		if err != nil {
			slog.Warn("dexscreener: enrichment failed, skipping", "token", p.TokenAddress, "err", err)
			continue
		}
		if !ok {
			slog.Debug("dexscreener: no pairs for token", "token", p.TokenAddress)
			continue
		}
		snapshots = append(snapshots, mapSnapshot(p, pr, f.now()))
	}
	return snapshots, nil
}

// filter deja los perfiles de la chain configurada con address válida y
// descripción con alguna keyword. Los duplicados conservan su primera posición.
func (f *Feed) filter(profiles []tokenProfile) []tokenProfile {
	seen := make(map[string]bool, len(profiles))
	out := make([]tokenProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.ChainID != f.cfg.ChainID {
			continue
		}
		if !domain.ValidTokenAddress(p.TokenAddress) {
			slog.Debug("dexscreener: dropping invalid token address", "token", p.TokenAddress)
			continue
		}
		if !domain.MatchesKeywords(p.Description, f.cfg.Keywords) || seen[p.TokenAddress] {
			continue
		}
		seen[p.TokenAddress] = true
		out = append(out, p)
	}
	return out
}

func (f *Feed) fetchProfiles(ctx context.Context) ([]tokenProfile, error) {
	var profiles []tokenProfile
	if err := f.profiles.GetJSON(ctx, f.cfg.BaseURL+"/token-profiles/latest/v1", &profiles); err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}
	return profiles, nil
}

// fetchPair devuelve el primer par del token. ok es false si no hay ninguno.
func (f *Feed) fetchPair(ctx context.Context, tokenAddress string) (pair, bool, error) {
	var resp pairsResponse
	u := f.cfg.BaseURL + "/latest/dex/tokens/" + url.PathEscape(tokenAddress)
	if err := f.pairs.GetJSON(ctx, u, &resp); err != nil {
		return pair{}, false, fmt.Errorf("fetch pairs: %w", err)
	}
	if len(resp.Pairs) == 0 {
		return pair{}, false, nil
	}
	return resp.Pairs[0], true, nil
}
