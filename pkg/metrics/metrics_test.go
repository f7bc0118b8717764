package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStale = errors.New("revisión vieja")

func TestObserveOperation_UsaClasificadorInyectado(t *testing.T) {
	Init(func(err error) string {
		if errors.Is(err, errStale) {
			return "CONFLICT"
		}
		return "INTERNAL"
	})
	require.NotNil(t, operationsTotal)

	before := testutil.ToFloat64(operationsTotal.WithLabelValues(OpRecordPayment, "CONFLICT"))
	ObserveOperation(OpRecordPayment, errStale, time.Millisecond)
	ObserveOperation(OpRecordPayment, nil, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(operationsTotal.WithLabelValues(OpRecordPayment, "CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(operationsTotal.WithLabelValues(OpRecordPayment, resultSuccess)))

	// Una segunda llamada a Init no reemplaza el registro ni el clasificador.
	Init(nil)
	ObserveOperation(OpRecordPayment, errStale, time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(operationsTotal.WithLabelValues(OpRecordPayment, "CONFLICT")))
}
