package domain

import (
	"fmt"
	"time"
)

// PositionStatus es el estado de una Position en su ciclo de vida.
type PositionStatus string

const (
	StatusCandidate  PositionStatus = "CANDIDATE"
	StatusBought     PositionStatus = "BOUGHT"
	StatusMonitoring PositionStatus = "MONITORING"
	StatusSold       PositionStatus = "SOLD"
	StatusFailed     PositionStatus = "FAILED"
)

// Terminal indica si ya no hay transiciones posibles.
func (s PositionStatus) Terminal() bool {
	return s == StatusSold || s == StatusFailed
}

var allowedTransitions = map[PositionStatus][]PositionStatus{
	StatusCandidate:  {StatusBought, StatusFailed},
	StatusBought:     {StatusMonitoring, StatusFailed},
	StatusMonitoring: {StatusSold, StatusFailed},
}

// CanTransition indica si from → to es una transición válida.
func CanTransition(from, to PositionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Position es una posición de trading sobre un token.
// Edades en minutos de edad del par; precios en unidades base por unidad raw del token.
type Position struct {
	TokenAddress string         `json:"token_address"`
	Status       PositionStatus `json:"status"`
	OpenedAt     time.Time      `json:"opened_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	PairCreatedAt    time.Time `json:"pair_created_at"`
	InitialLiquidity float64   `json:"initial_liquidity"`
	Buys24h          int       `json:"buys_24h"`

	EntryAge   float64 `json:"entry_age"`
	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
	BaseSpent  float64 `json:"base_spent"`

	ExitAge      float64 `json:"exit_age,omitempty"`
	ExitPrice    float64 `json:"exit_price,omitempty"`
	BaseReceived float64 `json:"base_received,omitempty"`
	ROI          float64 `json:"roi,omitempty"`

	FailureReason string `json:"failure_reason,omitempty"`
}

// NewPosition crea una posición CANDIDATE a partir de un snapshot aceptado.
func NewPosition(s TokenSnapshot, now time.Time) Position {
	return Position{
		TokenAddress:     s.Address,
		Status:           StatusCandidate,
		OpenedAt:         now,
		UpdatedAt:        now,
		PairCreatedAt:    s.PairCreatedAt,
		InitialLiquidity: s.Liquidity.USD.Or(0),
		Buys24h:          s.Txns.H24.Buys,
	}
}

// Transition mueve la posición al estado to, o devuelve ErrInvalidTransition.
func (p *Position) Transition(to PositionStatus, now time.Time) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%s %s → %s: %w", p.TokenAddress, p.Status, to, ErrInvalidTransition)
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}

// Fail mueve una posición no terminal a FAILED con el motivo.
func (p *Position) Fail(reason string, now time.Time) error {
	if err := p.Transition(StatusFailed, now); err != nil {
		return err
	}
	p.FailureReason = reason
	return nil
}

// HoldingMinutes es la diferencia de edad del par entre entrada y salida.
func (p Position) HoldingMinutes() float64 {
	if p.Status != StatusSold {
		return 0
	}
	return p.ExitAge - p.EntryAge
}
