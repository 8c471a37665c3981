package ports

import (
	"context"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// MetadataProvider busca la metadata on-chain de un mint.
// found es false si el mint no existe; eso no es un error.
type MetadataProvider interface {
	FetchMetadata(ctx context.Context, tokenAddress string) (data domain.OnChainData, found bool, err error)
}
