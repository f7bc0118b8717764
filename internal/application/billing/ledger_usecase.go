package billing

import (
	"context"
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

// Defaults valores de configuración que se leen una sola vez al arrancar
// y se pasan explícitamente a cada emisión.
type Defaults struct {
	TaxRate         decimal.Decimal
	PaymentTermDays int
}

// Policy reglas operativas del libro de facturas.
type Policy struct {
	InvoicePrefix       string
	CurrencyDecimals    int32
	InvoiceableStatuses []string
	MaxRetries          int
}

// DefaultPolicy prefijo FAC, centavos, solo envíos entregados.
func DefaultPolicy() Policy {
	return Policy{
		InvoicePrefix:       "FAC",
		CurrencyDecimals:    money.DefaultPlaces,
		InvoiceableStatuses: []string{entity.ShipmentStatusDelivered},
		MaxRetries:          concurrency.DefaultMaxAttempts,
	}
}

// GenerateInvoiceInput datos de emisión. TaxRate es la tasa vigente tomada por el llamador.
type GenerateInvoiceInput struct {
	ClientID    string
	ShipmentIDs []string
	DueInDays   int
	Notes       string
	TaxRate     decimal.Decimal
}

// LedgerUseCase libro de facturas: emisión, anulación y consultas.
type LedgerUseCase struct {
	txRunner     BillingTxRunner
	clientRepo   repository.ClientRepository
	shipmentRepo repository.ShipmentRepository
	invoiceRepo  repository.InvoiceRepository
	paymentRepo  repository.PaymentRepository
	generator    InvoicePDFGenerator
	policy       Policy
	log          *logger.Logger
	now          func() time.Time
}

// NewLedgerUseCase construye el caso de uso. generator puede ser nil si no se exponen PDFs.
func NewLedgerUseCase(
	txRunner BillingTxRunner,
	clientRepo repository.ClientRepository,
	shipmentRepo repository.ShipmentRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	generator InvoicePDFGenerator,
	policy Policy,
	log *logger.Logger,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:     txRunner,
		clientRepo:   clientRepo,
		shipmentRepo: shipmentRepo,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		generator:    generator,
		policy:       policy,
		log:          log,
		now:          time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *LedgerUseCase) WithClock(now func() time.Time) *LedgerUseCase {
	uc.now = now
	return uc
}

// Generate emite una factura con los envíos indicados y los marca como facturados en la misma transacción.
func (uc *LedgerUseCase) Generate(ctx context.Context, in GenerateInvoiceInput) (resp *dto.InvoiceResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(metrics.OpGenerate, err, time.Since(start)) }()

	if err := validateGenerate(in); err != nil {
		return nil, err
	}
	client, err := uc.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("factura: obtener cliente: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, in.ClientID)
	}

	now := uc.now()
	var invoice *entity.Invoice
	err = uc.txRunner.RunBilling(ctx, func(
		shipmentRepo repository.ShipmentRepository,
		invoiceRepo repository.InvoiceRepository,
		_ repository.PaymentRepository,
	) error {
		shipments, err := shipmentRepo.GetByIDs(ctx, in.ShipmentIDs)
		if err != nil {
			return fmt.Errorf("factura: obtener envíos: %w", err)
		}
		byID := make(map[string]*entity.Shipment, len(shipments))
		for _, s := range shipments {
			byID[s.ID] = s
		}

		amounts := make([]decimal.Decimal, 0, len(in.ShipmentIDs))
		for _, id := range in.ShipmentIDs {
			s, ok := byID[id]
			switch {
			case !ok:
				return fmt.Errorf("%w: el envío %s no existe", domain.ErrValidation, id)
			case s.ClientID != in.ClientID:
				return fmt.Errorf("%w: el envío %s pertenece a otro cliente", domain.ErrValidation, id)
			case s.Invoiced:
				return fmt.Errorf("%w: el envío %s ya está facturado", domain.ErrValidation, id)
			case !s.IsInvoiceable(uc.policy.InvoiceableStatuses):
				return fmt.Errorf("%w: el envío %s está en estado %q, no facturable", domain.ErrValidation, id, s.Status)
			}
			amounts = append(amounts, s.TotalAmount)
		}
		amountHT := money.Round(money.Sum(amounts...), uc.policy.CurrencyDecimals)

		number, err := invoiceRepo.NextNumber(ctx, uc.policy.InvoicePrefix, now)
		if err != nil {
			return fmt.Errorf("factura: reservar número: %w", err)
		}
		invoice = entity.NewInvoice(uuid.New().String(), number, in.ClientID, in.ShipmentIDs,
			amountHT, in.TaxRate, uc.policy.CurrencyDecimals, now, in.DueInDays, in.Notes)

		for _, id := range in.ShipmentIDs {
			if err := shipmentRepo.SetInvoiced(ctx, id, true); err != nil {
				return fmt.Errorf("factura: marcar envío %s: %w", id, err)
			}
		}
		if err := invoiceRepo.Create(ctx, invoice); err != nil {
			return fmt.Errorf("factura: crear: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AddInvoiced(invoice.TotalTTC.InexactFloat64())
	uc.log.Info().Str("invoice_id", invoice.ID).Str("number", invoice.Number).Str("client_id", invoice.ClientID).
		Int("shipments", len(invoice.ShipmentIDs)).Str("total_ttc", invoice.TotalTTC.String()).Msg("factura emitida")
	out := dto.NewInvoiceResponse(invoice, now)
	return &out, nil
}

func validateGenerate(in GenerateInvoiceInput) error {
	if in.ClientID == "" {
		return fmt.Errorf("%w: client_id es requerido", domain.ErrValidation)
	}
	if len(in.ShipmentIDs) == 0 {
		return fmt.Errorf("%w: se requiere al menos un envío", domain.ErrValidation)
	}
	seen := make(map[string]struct{}, len(in.ShipmentIDs))
	for _, id := range in.ShipmentIDs {
		if id == "" {
			return fmt.Errorf("%w: shipment_id vacío", domain.ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: el envío %s está repetido", domain.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}
	if in.DueInDays < 0 {
		return fmt.Errorf("%w: due_in_days no puede ser negativo", domain.ErrValidation)
	}
	if in.TaxRate.IsNegative() || !in.TaxRate.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: tasa de impuesto fuera de rango: %s", domain.ErrValidation, in.TaxRate.String())
	}
	if !money.IsExact(in.TaxRate, money.RatePlaces) {
		return fmt.Errorf("%w: la tasa de impuesto %s tiene más de %d decimales", domain.ErrValidation,
			in.TaxRate.String(), money.RatePlaces)
	}
	return nil
}

// Cancel anula la factura y libera sus envíos para una nueva emisión.
// Falla con ErrConflict si tiene pagos o ya estaba anulada.
func (uc *LedgerUseCase) Cancel(ctx context.Context, invoiceID string) (resp *dto.InvoiceResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(metrics.OpCancelInvoice, err, time.Since(start)) }()

	var invoice *entity.Invoice
	var now time.Time
	err = concurrency.WithRevisionRetry(ctx, uc.policy.MaxRetries, uc.log, metrics.OpCancelInvoice, func(int) error {
		now = uc.now()
		return uc.txRunner.RunBilling(ctx, func(
			shipmentRepo repository.ShipmentRepository,
			invoiceRepo repository.InvoiceRepository,
			_ repository.PaymentRepository,
		) error {
			inv, err := invoiceRepo.GetByID(ctx, invoiceID)
			if err != nil {
				return fmt.Errorf("factura: obtener: %w", err)
			}
			if inv == nil {
				return fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
			}
			if err := inv.Cancel(now); err != nil {
				return err
			}
			if err := invoiceRepo.Update(ctx, inv); err != nil {
				return err
			}
			for _, id := range inv.ShipmentIDs {
				if err := shipmentRepo.SetInvoiced(ctx, id, false); err != nil {
					return fmt.Errorf("factura: liberar envío %s: %w", id, err)
				}
			}
			invoice = inv
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("invoice_id", invoice.ID).Str("number", invoice.Number).Msg("factura anulada")
	out := dto.NewInvoiceResponse(invoice, now)
	return &out, nil
}

// GetDetails proyección de solo lectura con cliente y envíos resueltos.
// El estado overdue se deriva aquí; nunca se persiste.
func (uc *LedgerUseCase) GetDetails(ctx context.Context, invoiceID string) (*dto.InvoiceDetailsResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("factura: obtener: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}

	out := &dto.InvoiceDetailsResponse{
		InvoiceResponse: dto.NewInvoiceResponse(inv, uc.now()),
		PersistedStatus: inv.Status,
		Client:          dto.ClientSummary{ID: inv.ClientID},
	}
	client, err := uc.clientRepo.GetByID(ctx, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("factura: obtener cliente: %w", err)
	}
	if client != nil {
		out.Client = dto.ClientSummary{
			ID: client.ID, Name: client.Name, TaxID: client.TaxID, Email: client.Email, Address: client.Address,
		}
	}

	shipments, err := uc.shipmentRepo.GetByIDs(ctx, inv.ShipmentIDs)
	if err != nil {
		return nil, fmt.Errorf("factura: obtener envíos: %w", err)
	}
	byID := make(map[string]*entity.Shipment, len(shipments))
	for _, s := range shipments {
		byID[s.ID] = s
	}
	out.Shipments = make([]dto.InvoiceShipmentLine, 0, len(inv.ShipmentIDs))
	for _, id := range inv.ShipmentIDs {
		line := dto.InvoiceShipmentLine{ShipmentID: id}
		if s, ok := byID[id]; ok {
			line.TrackingNumber = s.TrackingNumber
			line.Status = s.Status
			line.Packages = len(s.Packages)
			line.Amount = s.TotalAmount
		}
		out.Shipments = append(out.Shipments, line)
	}
	return out, nil
}

// ListByClient facturas del cliente, más recientes primero.
func (uc *LedgerUseCase) ListByClient(ctx context.Context, in dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	if in.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id es requerido", domain.ErrValidation)
	}
	page := in.Page.Normalize()
	invoices, err := uc.invoiceRepo.ListByClient(ctx, in.ClientID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("factura: listar: %w", err)
	}
	now := uc.now()
	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, dto.NewInvoiceResponse(inv, now))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  page.Echo(),
	}, nil
}

