package ports

import (
	"context"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// TokenStore persiste los tokens analizados y los trades ejecutados sobre ellos.
type TokenStore interface {
	// SaveToken hace upsert del documento por address, conservando los trades.
	SaveToken(ctx context.Context, doc domain.TokenDocument) error

	// GetToken devuelve el documento con sus trades, o domain.ErrNotFound.
	GetToken(ctx context.Context, tokenAddress string) (domain.TokenDocument, error)

	// FindGoodTrades devuelve los good trades ordenados por score descendente.
	FindGoodTrades(ctx context.Context) ([]domain.TokenDocument, error)

	// AppendTrade añade un trade al historial del token.
	AppendTrade(ctx context.Context, tokenAddress string, trade domain.TradeRecord) error

	// Close libera la conexión.
	Close() error
}
