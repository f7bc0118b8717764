package concurrency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
)

func init() {
	baseBackoff = time.Microsecond
}

func TestWithRevisionRetry_ExitoTrasConflictos(t *testing.T) {
	calls := 0
	err := WithRevisionRetry(context.Background(), 5, logger.Nop(), "test", func(attempt int) error {
		calls++
		if attempt < 3 {
			return domain.ErrConcurrentUpdate
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRevisionRetry_AgotaIntentos(t *testing.T) {
	calls := 0
	err := WithRevisionRetry(context.Background(), 4, logger.Nop(), "test", func(int) error {
		calls++
		return domain.ErrConcurrentUpdate
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestWithRevisionRetry_NoReintentaErroresDeNegocio(t *testing.T) {
	calls := 0
	err := WithRevisionRetry(context.Background(), 5, nil, "test", func(int) error {
		calls++
		return domain.ErrValidation
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, calls)
}

func TestWithRevisionRetry_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRevisionRetry(ctx, 5, nil, "test", func(int) error {
		t.Fatal("no debe ejecutarse con el contexto cancelado")
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
}
