package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/application/concurrency"
	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/money"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
	"github.com/jhoicas/Facturacion-envios/pkg/metrics"
)

// Policy parámetros del conciliador.
type Policy struct {
	CurrencyDecimals int32
	MaxRetries       int
}

// DefaultPolicy centavos y cinco intentos.
func DefaultPolicy() Policy {
	return Policy{CurrencyDecimals: money.DefaultPlaces, MaxRetries: concurrency.DefaultMaxAttempts}
}

// RecordPaymentInput datos de un pago. PaymentDate cero = ahora.
type RecordPaymentInput struct {
	InvoiceID      string
	Amount         decimal.Decimal
	Method         string
	PaymentDate    time.Time
	Reference      string
	Notes          string
	IdempotencyKey string
}

// ReconcilerUseCase registra y anula pagos manteniendo el saldo de la factura.
// Es el único escritor de amount_paid, amount_due y status una vez emitida la factura.
type ReconcilerUseCase struct {
	txRunner    PaymentTxRunner
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	policy      Policy
	log         *logger.Logger
	now         func() time.Time
}

// NewReconcilerUseCase construye el caso de uso.
func NewReconcilerUseCase(
	txRunner PaymentTxRunner,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	policy Policy,
	log *logger.Logger,
) *ReconcilerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcilerUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		policy:      policy,
		log:         log,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *ReconcilerUseCase) WithClock(now func() time.Time) *ReconcilerUseCase {
	uc.now = now
	return uc
}

// RecordPayment aplica el pago a la factura con control de revisión y crea el registro en la misma transacción.
// Con IdempotencyKey, un reintento con el mismo payload devuelve el pago original.
func (uc *ReconcilerUseCase) RecordPayment(ctx context.Context, in RecordPaymentInput) (resp *dto.PaymentResultResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(metrics.OpRecordPayment, err, time.Since(start)) }()

	if err := uc.validateRecord(in); err != nil {
		return nil, err
	}
	fp := ""
	if in.IdempotencyKey != "" {
		fp = fingerprint(in)
		existing, err := uc.paymentRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("pago: buscar clave de idempotencia: %w", err)
		}
		if existing != nil {
			return uc.replay(ctx, existing, fp)
		}
	}

	var invoice *entity.Invoice
	var payment, replayed *entity.Payment
	var now time.Time
	err = concurrency.WithRevisionRetry(ctx, uc.policy.MaxRetries, uc.log, metrics.OpRecordPayment, func(int) error {
		now = uc.now()
		replayed = nil
		return uc.txRunner.RunPayment(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
			// La clave pudo confirmarse entre la búsqueda inicial y este intento.
			if in.IdempotencyKey != "" {
				existing, err := paymentRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
				if err != nil {
					return fmt.Errorf("pago: buscar clave de idempotencia: %w", err)
				}
				if existing != nil {
					replayed = existing
					return nil
				}
			}
			inv, err := invoiceRepo.GetByID(ctx, in.InvoiceID)
			if err != nil {
				return fmt.Errorf("pago: obtener factura: %w", err)
			}
			if inv == nil {
				return fmt.Errorf("%w: factura %s", domain.ErrNotFound, in.InvoiceID)
			}
			if err := inv.ApplyPayment(in.Amount, now); err != nil {
				return err
			}
			if err := invoiceRepo.Update(ctx, inv); err != nil {
				return err
			}

			paymentDate := in.PaymentDate
			if paymentDate.IsZero() {
				paymentDate = now
			}
			p := &entity.Payment{
				ID:             uuid.New().String(),
				InvoiceID:      inv.ID,
				ClientID:       inv.ClientID,
				Amount:         in.Amount,
				Method:         in.Method,
				PaymentDate:    paymentDate,
				Reference:      in.Reference,
				Notes:          in.Notes,
				Status:         entity.PaymentStatusActive,
				IdempotencyKey: in.IdempotencyKey,
				Fingerprint:    fp,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := paymentRepo.Create(ctx, p); err != nil {
				return fmt.Errorf("pago: crear: %w", err)
			}
			invoice, payment = inv, p
			return nil
		})
	})
	if err != nil {
		// Otra petición con la misma clave ganó la carrera entre la búsqueda y el insert.
		if in.IdempotencyKey != "" && errors.Is(err, domain.ErrDuplicate) {
			existing, getErr := uc.paymentRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
			if getErr == nil && existing != nil {
				return uc.replay(ctx, existing, fp)
			}
		}
		return nil, err
	}
	if replayed != nil {
		return uc.replay(ctx, replayed, fp)
	}

	metrics.AddCollected(payment.Amount.InexactFloat64())
	uc.log.Info().Str("payment_id", payment.ID).Str("invoice_id", invoice.ID).Str("amount", payment.Amount.String()).
		Str("status", invoice.Status).Int64("revision", invoice.Revision).Msg("pago registrado")
	return &dto.PaymentResultResponse{
		Payment: dto.NewPaymentResponse(payment),
		Invoice: dto.NewInvoiceResponse(invoice, now),
	}, nil
}

func (uc *ReconcilerUseCase) validateRecord(in RecordPaymentInput) error {
	if in.InvoiceID == "" {
		return fmt.Errorf("%w: invoice_id es requerido", domain.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: el monto del pago debe ser mayor que cero", domain.ErrValidation)
	}
	if !money.IsExact(in.Amount, uc.policy.CurrencyDecimals) {
		return fmt.Errorf("%w: el monto %s tiene más de %d decimales", domain.ErrValidation,
			in.Amount.String(), uc.policy.CurrencyDecimals)
	}
	if !entity.ValidPaymentMethod(in.Method) {
		return fmt.Errorf("%w: medio de pago desconocido %q", domain.ErrValidation, in.Method)
	}
	return nil
}

// replay devuelve el pago ya registrado con la misma clave, o conflicto si el payload difiere.
func (uc *ReconcilerUseCase) replay(ctx context.Context, existing *entity.Payment, fp string) (*dto.PaymentResultResponse, error) {
	if existing.Fingerprint != fp {
		return nil, fmt.Errorf("%w: la clave de idempotencia %s ya se usó con otro contenido", domain.ErrConflict, existing.IdempotencyKey)
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, existing.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("pago: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, existing.InvoiceID)
	}
	uc.log.Info().Str("payment_id", existing.ID).Str("idempotency_key", existing.IdempotencyKey).Msg("pago repetido, se devuelve el original")
	return &dto.PaymentResultResponse{
		Payment: dto.NewPaymentResponse(existing),
		Invoice: dto.NewInvoiceResponse(inv, uc.now()),
		Replay:  true,
	}, nil
}

// CancelPayment anula el pago y revierte su efecto en la factura. El registro nunca se borra.
func (uc *ReconcilerUseCase) CancelPayment(ctx context.Context, paymentID string) (resp *dto.PaymentResultResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(metrics.OpCancelPayment, err, time.Since(start)) }()

	var invoice *entity.Invoice
	var payment *entity.Payment
	var now time.Time
	err = concurrency.WithRevisionRetry(ctx, uc.policy.MaxRetries, uc.log, metrics.OpCancelPayment, func(int) error {
		now = uc.now()
		return uc.txRunner.RunPayment(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
			p, err := paymentRepo.GetByID(ctx, paymentID)
			if err != nil {
				return fmt.Errorf("pago: obtener: %w", err)
			}
			if p == nil {
				return fmt.Errorf("%w: pago %s", domain.ErrNotFound, paymentID)
			}
			if err := p.Cancel(now); err != nil {
				return err
			}
			inv, err := invoiceRepo.GetByID(ctx, p.InvoiceID)
			if err != nil {
				return fmt.Errorf("pago: obtener factura: %w", err)
			}
			if inv == nil {
				return fmt.Errorf("%w: el pago %s referencia la factura inexistente %s", domain.ErrConflict, p.ID, p.InvoiceID)
			}
			if err := inv.RevertPayment(p.Amount, now); err != nil {
				return err
			}
			if err := invoiceRepo.Update(ctx, inv); err != nil {
				return err
			}
			if err := paymentRepo.UpdateStatus(ctx, p); err != nil {
				return err
			}
			invoice, payment = inv, p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("payment_id", payment.ID).Str("invoice_id", invoice.ID).Str("amount", payment.Amount.String()).
		Str("status", invoice.Status).Msg("pago anulado")
	return &dto.PaymentResultResponse{
		Payment: dto.NewPaymentResponse(payment),
		Invoice: dto.NewInvoiceResponse(invoice, now),
	}, nil
}

// GetInvoicePayments historial de pagos (activos y anulados), payment_date descendente.
func (uc *ReconcilerUseCase) GetInvoicePayments(ctx context.Context, invoiceID string) ([]dto.PaymentResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("pago: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}
	payments, err := uc.paymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("pago: listar: %w", err)
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, dto.NewPaymentResponse(p))
	}
	return out, nil
}
