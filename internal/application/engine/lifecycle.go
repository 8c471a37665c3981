package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/observability"
)

// processToken aplica el gate y, si acepta, la mitad de compra del ciclo:
// CANDIDATE → BOUGHT → MONITORING. Un panic se contiene aquí y solo falla
// este token.
func (e *Engine) processToken(ctx context.Context, s domain.TokenSnapshot) (outcome string) {
	if e.positions.blocked(s.Address) {
		return observability.OutcomeSkipped
	}

	now := e.now()
	decision := e.cfg.Gate.Evaluate(s, now)
	if !decision.Accept {
		slog.Debug("engine: rejected",
			"token", s.Address,
			"age_min", decision.AgeMinutes,
			"liquidity", decision.Metrics.LiquidityUSD.Or(0),
			"buys_24h", decision.Metrics.Buys24h,
		)
		return observability.OutcomeRejected
	}

	if _, ok := e.positions.reserve(s, now); !ok {
		return observability.OutcomeSkipped
	}
	owned := true
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: unexpected failure", "token", s.Address, "panic", r)
			if owned {
				e.fail(s.Address, fmt.Sprintf("unexpected failure: %v", r))
			}
			outcome = observability.OutcomeFailed
		}
	}()

	slog.Info("engine: buying",
		"token", s.Address,
		"symbol", s.Symbol,
		"age_min", decision.AgeMinutes,
		"liquidity", decision.Metrics.LiquidityUSD.Or(0),
		"buys_24h", decision.Metrics.Buys24h,
	)

	fill, err := e.trader.Buy(ctx, s.Address, e.cfg.TradeSize)
	if err != nil {
		slog.Warn("engine: buy failed", "token", s.Address, "err", err)
		e.fail(s.Address, "buy: "+err.Error())
		return observability.OutcomeFailed
	}

	pos, err := e.positions.update(s.Address, func(p *domain.Position) error {
		p.EntryAge = decision.AgeMinutes
		p.EntryPrice = fill.Price
		p.Quantity = fill.OutputAmount
		p.BaseSpent = e.cfg.TradeSize
		if err := p.Transition(domain.StatusBought, e.now()); err != nil {
			return err
		}
		return p.Transition(domain.StatusMonitoring, e.now())
	})
	if err != nil {
		slog.Error("engine: position update after buy", "token", s.Address, "err", err)
		e.fail(s.Address, err.Error())
		return observability.OutcomeFailed
	}
	e.metrics.PositionOpened()
	e.appendTrade(ctx, s.Address, fill.Entry)

	owned = false
	e.monitors.Add(1)
	go e.monitor(ctx, pos)

	return observability.OutcomeAccepted
}

// monitor revisa la edad del par y vende al llegar al umbral de salida.
// Si ctx se cancela, falla la posición y sale.
func (e *Engine) monitor(ctx context.Context, pos domain.Position) {
	defer e.monitors.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: monitor panicked", "token", pos.TokenAddress, "panic", r)
			e.fail(pos.TokenAddress, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	ticker := time.NewTicker(e.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.fail(pos.TokenAddress, "engine stopped")
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				e.fail(pos.TokenAddress, "engine stopped")
				return
			}
			age := domain.PairAgeMinutes(pos.PairCreatedAt, e.now())
			if age >= e.cfg.ExitAgeMinutes {
				e.closePosition(ctx, pos.TokenAddress, age)
				return
			}
		}
	}
}

// closePosition vende toda la tenencia: MONITORING → SOLD, cierra la address y
// registra el trade. Si la venta falla, la posición pasa a FAILED y se libera.
func (e *Engine) closePosition(ctx context.Context, addr string, age float64) {
	fill, err := e.trader.SellAll(ctx, addr)
	if err != nil {
		slog.Warn("engine: sell failed", "token", addr, "err", err)
		e.fail(addr, "sell: "+err.Error())
		return
	}

	pos, err := e.positions.update(addr, func(p *domain.Position) error {
		p.ExitAge = age
		p.ExitPrice = fill.Price
		p.BaseReceived = fill.OutputAmount
		p.ROI = fill.ROI
		return p.Transition(domain.StatusSold, e.now())
	})
	if err != nil {
		slog.Error("engine: position update after sell", "token", addr, "err", err)
		return
	}
	e.positions.settle(addr)
	e.metrics.PositionClosed(domain.StatusSold, pos.ROI)
	e.metrics.SetPositions(e.positions.counts())

	slog.Info("engine: sold",
		"token", addr,
		"entry_age_min", pos.EntryAge,
		"exit_age_min", pos.ExitAge,
		"entry_price", pos.EntryPrice,
		"exit_price", pos.ExitPrice,
		"roi_pct", pos.ROI,
	)

	e.appendTrade(ctx, addr, fill.Entry)
	if e.reporter != nil {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()
		if err := e.reporter.RecordTrade(rctx, domain.SummaryFromPosition(pos, e.now())); err != nil {
			slog.Warn("engine: report trade", "token", addr, "err", err)
		}
	}
}

// fail mueve una posición viva a FAILED y libera la reserva.
func (e *Engine) fail(addr, reason string) {
	_, err := e.positions.update(addr, func(p *domain.Position) error {
		return p.Fail(reason, e.now())
	})
	e.positions.release(addr)
	if err != nil {
		slog.Debug("engine: fail position", "token", addr, "err", err)
		return
	}
	e.metrics.PositionClosed(domain.StatusFailed, 0)
	e.metrics.SetPositions(e.positions.counts())
}

// appendTrade guarda la entrada del ledger en el documento del token.
// Un fallo aquí no afecta a la posición.
func (e *Engine) appendTrade(ctx context.Context, addr string, entry domain.LedgerEntry) {
	if e.store == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := e.store.AppendTrade(sctx, addr, domain.TradeRecordFromEntry(entry)); err != nil {
		slog.Warn("engine: append trade", "token", addr, "side", entry.Side, "err", err)
	}
}
