// Package metrics expone contadores e histogramas Prometheus del motor de facturación.
// Todas las funciones son no-op mientras Init no se haya llamado. No depende del dominio:
// la clasificación de errores la inyecta quien llama a Init.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "billing_"

	resultSuccess = "success"
	resultError   = "error"
)

// Operaciones observadas.
const (
	OpQuote          = "quote"
	OpGenerate       = "generate_invoice"
	OpCancelInvoice  = "cancel_invoice"
	OpRecordPayment  = "record_payment"
	OpCancelPayment  = "cancel_payment"
	OpCreateRule     = "create_pricing_rule"
	OpDeactivateRule = "deactivate_pricing_rule"
)

var (
	registerOnce sync.Once
	classify     = func(error) string { return resultError }

	operationsTotal   *prometheus.CounterVec
	operationsLatency *prometheus.HistogramVec
	revisionRetries   *prometheus.CounterVec
	retriesExhausted  *prometheus.CounterVec
	pricingMisses     *prometheus.CounterVec
	invoicedAmount    prometheus.Counter
	collectedAmount   prometheus.Counter
)

// Init registra las métricas en el registro por defecto. Idempotente.
// classifier traduce un error a la etiqueta result; nil deja "error" para todos.
func Init(classifier func(error) string) {
	registerOnce.Do(func() {
		if classifier != nil {
			classify = classifier
		}
		operationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operations_total",
				Help: "Total billing operations by operation and result",
			},
			[]string{"operation", "result"},
		)
		operationsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_latency_seconds",
				Help:    "Billing operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)
		revisionRetries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "revision_retries_total",
				Help: "Optimistic concurrency retries by operation",
			},
			[]string{"operation"},
		)
		retriesExhausted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "revision_retries_exhausted_total",
				Help: "Operations that gave up after the retry budget",
			},
			[]string{"operation"},
		)
		pricingMisses = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pricing_not_found_total",
				Help: "Quotes without an applicable pricing rule by service offering and zone",
			},
			[]string{"service_offering", "zone"},
		)
		invoicedAmount = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "invoiced_amount_total",
			Help: "Sum of TTC of generated invoices",
		})
		collectedAmount = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "collected_amount_total",
			Help: "Sum of recorded payments (cancellations not subtracted)",
		})

		prometheus.MustRegister(
			operationsTotal,
			operationsLatency,
			revisionRetries,
			retriesExhausted,
			pricingMisses,
			invoicedAmount,
			collectedAmount,
		)
	})
}

// Handler devuelve el handler HTTP de exposición.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOperation registra resultado y latencia. El resultado es la clase del error o "success".
func ObserveOperation(operation string, err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = classify(err)
	}
	if operationsTotal != nil {
		operationsTotal.WithLabelValues(operation, result).Inc()
	}
	if operationsLatency != nil {
		operationsLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// IncRevisionRetry cuenta un reintento por conflicto de revisión.
func IncRevisionRetry(operation string) {
	if revisionRetries != nil {
		revisionRetries.WithLabelValues(operation).Inc()
	}
}

// IncRetriesExhausted cuenta una operación que agotó los reintentos.
func IncRetriesExhausted(operation string) {
	if retriesExhausted != nil {
		retriesExhausted.WithLabelValues(operation).Inc()
	}
}

// IncPricingNotFound cuenta un hueco de catálogo.
func IncPricingNotFound(serviceOfferingID, zoneID string) {
	if pricingMisses != nil {
		pricingMisses.WithLabelValues(serviceOfferingID, zoneID).Inc()
	}
}

// AddInvoiced suma el TTC de una factura emitida.
func AddInvoiced(amount float64) {
	if invoicedAmount != nil && amount > 0 {
		invoicedAmount.Add(amount)
	}
}

// AddCollected suma un pago registrado.
func AddCollected(amount float64) {
	if collectedAmount != nil && amount > 0 {
		collectedAmount.Add(amount)
	}
}
