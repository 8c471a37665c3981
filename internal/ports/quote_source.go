package ports

import (
	"context"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// QuoteSource cotiza un swap entre dos mints.
type QuoteSource interface {
	Quote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error)
}
