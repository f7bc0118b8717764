// Package concurrency agrupa la política de reintentos del control de concurrencia optimista.
package concurrency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
	"github.com/jhoicas/Facturacion-envios/pkg/metrics"
)

// DefaultMaxAttempts intentos totales (no reintentos) antes de rendirse.
const DefaultMaxAttempts = 5

// baseBackoff espera entre intentos; crece linealmente con el número de intento.
var baseBackoff = 5 * time.Millisecond

// IsRetryable indica si err proviene de una revisión desactualizada.
// Los errores de negocio (validación, conflicto de estado) nunca se reintentan.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrConcurrentUpdate)
}

// WithRevisionRetry ejecuta fn hasta maxAttempts veces mientras falle por revisión desactualizada.
// fn debe releer el estado en cada intento. Agotados los intentos devuelve un error que envuelve
// domain.ErrConflict y la causa original.
func WithRevisionRetry(ctx context.Context, maxAttempts int, log *logger.Logger, operation string, fn func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(attempt)
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		metrics.IncRevisionRetry(operation)
		if log != nil {
			log.Warn().Str("operation", operation).Int("attempt", attempt).Err(lastErr).Msg("revisión desactualizada, reintentando")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * baseBackoff):
		}
	}
	metrics.IncRetriesExhausted(operation)
	if log != nil {
		log.Error().Str("operation", operation).Int("attempts", maxAttempts).Msg("reintentos agotados")
	}
	return fmt.Errorf("%w: %s no pudo completarse tras %d intentos: %w", domain.ErrConflict, operation, maxAttempts, lastErr)
}
