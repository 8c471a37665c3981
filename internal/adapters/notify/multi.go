package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/ports"
)

// Multi reparte cada resumen a todos los reporters. Un fallo no impide
// que los demás registren; los errores se devuelven unidos.
type Multi []ports.TradeReporter

func (m Multi) RecordTrade(ctx context.Context, s domain.TradeSummary) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordTrade(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
