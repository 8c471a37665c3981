package ports

import (
	"context"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// TokenFeed devuelve los snapshots de tokens recién descubiertos.
type TokenFeed interface {
	Poll(ctx context.Context) ([]domain.TokenSnapshot, error)
}
