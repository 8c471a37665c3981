package domain

import "errors"

// Errores sentinel compartidos entre capas. Envolver con fmt.Errorf("...: %w", err)
// y comparar con errors.Is.
var (
	// ErrInsufficientBalance: la compra o venta pide más de lo que hay en el ledger.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidInput: address mal formada, monto no positivo o side desconocido.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient marca fallos de red, 429 y 5xx.
	ErrTransient = errors.New("transient network error")

	// ErrNotFound: el registro no existe.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition: cambio de estado no permitido para la posición.
	ErrInvalidTransition = errors.New("invalid position transition")
)
