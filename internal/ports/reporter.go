package ports

import (
	"context"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// TradeReporter registra el resultado de una posición cerrada.
// Las implementaciones deben ser idempotentes por address.
type TradeReporter interface {
	RecordTrade(ctx context.Context, summary domain.TradeSummary) error
}
