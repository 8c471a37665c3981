// Package solana consulta la metadata de mints por JSON-RPC de Solana.
package solana

import (
	"context"
	"fmt"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const defaultEndpoint = rpc.MainNetBeta_RPC

// MetadataClient implementa ports.MetadataProvider con getTokenSupply.
// Contar holders requiere escanear todas las cuentas: Holders siempre queda ausente.
type MetadataClient struct {
	rpc     *rpc.Client
	timeout time.Duration
	now     func() time.Time
}

// NewMetadataClient usa endpoint, o mainnet-beta si está vacío.
func NewMetadataClient(endpoint string) *MetadataClient {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &MetadataClient{
		rpc:     rpc.New(endpoint),
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

// FetchMetadata devuelve decimals y supply total del mint.
// Una cuenta inexistente o que no es mint da found=false sin error.
func (c *MetadataClient) FetchMetadata(ctx context.Context, tokenAddress string) (domain.OnChainData, bool, error) {
	mint, err := solanago.PublicKeyFromBase58(tokenAddress)
	if err != nil {
		return domain.OnChainData{}, false, fmt.Errorf("solana.FetchMetadata: %q: %w", tokenAddress, domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.rpc.GetTokenSupply(ctx, mint, rpc.CommitmentConfirmed)
	if err != nil {
		if isMissingMint(err) {
			return domain.OnChainData{}, false, nil
		}
		return domain.OnChainData{}, false, fmt.Errorf("solana.FetchMetadata: getTokenSupply: %w: %v", domain.ErrTransient, err)
	}
	if out == nil || out.Value == nil {
		return domain.OnChainData{}, false, nil
	}

	data := domain.OnChainData{
		Decimals:  int(out.Value.Decimals),
		FetchedAt: c.now().UTC(),
	}
	if raw, err := decimal.NewFromString(out.Value.Amount); err == nil {
		data.TotalSupply = domain.Some(raw.Shift(-int32(out.Value.Decimals)).InexactFloat64())
	}
	return data, true, nil
}

// isMissingMint detecta el error invalid-param del RPC para cuentas que no son mints.
func isMissingMint(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not find") ||
		strings.Contains(msg, "not a token mint") ||
		strings.Contains(msg, "invalid param")
}
