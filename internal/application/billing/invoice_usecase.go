package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/invoicing"
	"github.com/jhoicas/repairshop-api/internal/domain/money"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// InvoiceUseCase ciclo de vida de la cabecera de factura: alta, consulta,
// actualización con máquina de estados y borrado lógico.
type InvoiceUseCase struct {
	txRunner     BillingTxRunner
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	numbers      *invoicing.NumberGenerator
	notifier     *AsyncNotifier
	log          zerolog.Logger
	now          func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. customerRepo y notifier pueden ser nil.
func NewInvoiceUseCase(
	txRunner BillingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	numbers *invoicing.NumberGenerator,
	notifier *AsyncNotifier,
	log zerolog.Logger,
) *InvoiceUseCase {
	if numbers == nil {
		numbers = invoicing.NewNumberGenerator("")
	}
	return &InvoiceUseCase{
		txRunner:     txRunner,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		numbers:      numbers,
		notifier:     notifier,
		log:          log.With().Str("component", "invoices").Logger(),
		now:          time.Now,
	}
}

// Create crea una factura en borrador con número único.
// Impuesto y total se calculan salvo que vengan explícitos.
func (uc *InvoiceUseCase) Create(ctx context.Context, companyID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	verr := &domain.ValidationError{}
	in.CustomerID = normalizeOptionalID(verr, "customer_id", in.CustomerID)
	in.TicketID = normalizeOptionalID(verr, "ticket_id", in.TicketID)
	checkAmount(verr, "subtotal", in.Subtotal)
	checkAmount(verr, "tax_amount", in.TaxAmount)
	checkAmount(verr, "discount_amount", in.DiscountAmount)
	checkAmount(verr, "total_amount", in.TotalAmount)
	if in.TaxRate != nil && !money.ValidPercent(*in.TaxRate) {
		verr.Add("tax_rate", "la tasa debe estar entre 0 y 100")
	}
	if in.IssueDate != nil && in.DueDate != nil && in.DueDate.Before(*in.IssueDate) {
		verr.Add("due_date", "el vencimiento no puede ser anterior a la emisión")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if err := uc.checkCustomer(ctx, companyID, in.CustomerID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	inv := &entity.Invoice{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		CustomerID:     in.CustomerID,
		TicketID:       in.TicketID,
		Subtotal:       money.Round(valueOrZero(in.Subtotal)),
		TaxRate:        valueOrZero(in.TaxRate),
		DiscountAmount: money.Round(valueOrZero(in.DiscountAmount)),
		Status:         entity.InvoiceStatusDraft,
		IssueDate:      in.IssueDate,
		DueDate:        in.DueDate,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.TaxAmount != nil {
		inv.TaxAmount = money.Round(*in.TaxAmount)
		inv.TaxOverride = true
	}
	invoicing.ApplyTaxAndTotal(inv)
	if in.TotalAmount != nil {
		inv.TotalAmount = money.Round(*in.TotalAmount)
	}
	if err := invoicing.EnsureTotalsInRange(inv); err != nil {
		return nil, err
	}

	if err := uc.insertWithUniqueNumber(ctx, inv, now); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("company_id", companyID).
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Msg("factura creada")
	return toInvoiceResponse(inv, nil), nil
}

// insertWithUniqueNumber genera candidatos hasta que uno se inserta sin colisión.
// Cada intento corre en su propia transacción; solo se detiene si ctx se cancela
// o el error no es de duplicado.
func (uc *InvoiceUseCase) insertWithUniqueNumber(ctx context.Context, inv *entity.Invoice, now time.Time) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		inv.InvoiceNumber = uc.numbers.Next(now)
		err := uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.CashDrawerRepository) error {
			return invoiceRepo.Create(ctx, inv)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		uc.log.Warn().
			Str("invoice_number", inv.InvoiceNumber).
			Int("attempt", attempt).
			Msg("número de factura repetido, generando otro")
	}
}

// Get devuelve la factura con sus líneas.
func (uc *InvoiceUseCase) Get(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, domain.NotFound("factura")
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.NotFound("factura")
	}
	items, err := uc.invoiceRepo.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener líneas: %w", err)
	}
	return toInvoiceResponse(inv, items), nil
}

// List lista facturas del tenant, más recientes primero.
func (uc *InvoiceUseCase) List(ctx context.Context, companyID string, in dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	if in.Status != "" && !entity.IsValidInvoiceStatus(in.Status) {
		return nil, domain.Invalid("status", "estado desconocido: "+in.Status)
	}
	if in.CustomerID != "" {
		id, ok := parseID(in.CustomerID)
		if !ok {
			return nil, domain.Invalid("customer_id", "identificador inválido")
		}
		in.CustomerID = id
	}
	if in.TicketID != "" {
		id, ok := parseID(in.TicketID)
		if !ok {
			return nil, domain.Invalid("ticket_id", "identificador inválido")
		}
		in.TicketID = id
	}
	list, total, err := uc.invoiceRepo.List(ctx, companyID, repository.InvoiceFilter{
		CustomerID: in.CustomerID,
		TicketID:   in.TicketID,
		Status:     in.Status,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}
	for _, inv := range list {
		out.Items = append(out.Items, *toInvoiceResponse(inv, nil))
	}
	return out, nil
}

// Update aplica un parche a la cabecera bajo bloqueo de fila.
//
// Reglas: una factura pagada no admite cambios de montos ni de estado; una
// anulada no admite ningún cambio; status=paid nunca se acepta por esta vía.
// Con líneas presentes el subtotal se deriva de ellas.
func (uc *InvoiceUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, domain.NotFound("factura")
	}
	verr := &domain.ValidationError{}
	in.CustomerID = normalizeOptionalID(verr, "customer_id", in.CustomerID)
	in.TicketID = normalizeOptionalID(verr, "ticket_id", in.TicketID)
	checkAmount(verr, "subtotal", in.Subtotal)
	checkAmount(verr, "tax_amount", in.TaxAmount)
	checkAmount(verr, "discount_amount", in.DiscountAmount)
	if in.TaxRate != nil && !money.ValidPercent(*in.TaxRate) {
		verr.Add("tax_rate", "la tasa debe estar entre 0 y 100")
	}
	if in.Status != nil && !entity.IsValidInvoiceStatus(*in.Status) {
		verr.Add("status", "estado desconocido: "+*in.Status)
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if err := uc.checkCustomer(ctx, companyID, in.CustomerID); err != nil {
		return nil, err
	}

	var (
		inv      *entity.Invoice
		items    []*entity.InvoiceItem
		issuedAt bool
	)
	err := uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.CashDrawerRepository) error {
		var err error
		inv, err = invoiceRepo.GetForUpdate(ctx, companyID, id)
		if err != nil {
			return fmt.Errorf("bloquear factura: %w", err)
		}
		if inv == nil {
			return domain.NotFound("factura")
		}

		if inv.Status == entity.InvoiceStatusCancelled {
			return domain.Conflict("la factura %s está anulada", inv.InvoiceNumber)
		}
		statusChange := in.Status != nil && *in.Status != inv.Status
		if inv.IsPaid() && (in.HasFinancialChange() || statusChange) {
			return domain.Conflict("la factura %s está pagada y es inmutable", inv.InvoiceNumber)
		}
		if in.Status != nil {
			if err := invoicing.CheckTransition(inv.Status, *in.Status); err != nil {
				return err
			}
		}

		if in.CustomerID != nil {
			inv.CustomerID = in.CustomerID
		}
		if in.TicketID != nil {
			inv.TicketID = in.TicketID
		}
		if in.Notes != nil {
			inv.Notes = *in.Notes
		}
		if in.IssueDate != nil {
			inv.IssueDate = in.IssueDate
		}
		if in.DueDate != nil {
			inv.DueDate = in.DueDate
		}
		if inv.IssueDate != nil && inv.DueDate != nil && inv.DueDate.Before(*inv.IssueDate) {
			return domain.Invalid("due_date", "el vencimiento no puede ser anterior a la emisión")
		}

		if in.TaxRate != nil {
			inv.TaxRate = *in.TaxRate
			if in.TaxAmount == nil {
				inv.TaxOverride = false
			}
		}
		if in.TaxAmount != nil {
			inv.TaxAmount = money.Round(*in.TaxAmount)
			inv.TaxOverride = true
		}
		if in.DiscountAmount != nil {
			inv.DiscountAmount = money.Round(*in.DiscountAmount)
		}

		items, err = invoiceRepo.ListItems(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("obtener líneas: %w", err)
		}
		if len(items) > 0 {
			if in.Subtotal != nil {
				return domain.Invalid("subtotal", "el subtotal se calcula a partir de las líneas")
			}
			if in.HasFinancialChange() {
				invoicing.RecomputeTotals(inv, items)
			}
		} else if in.HasFinancialChange() {
			if in.Subtotal != nil {
				inv.Subtotal = money.Round(*in.Subtotal)
			}
			invoicing.ApplyTaxAndTotal(inv)
		}

		if statusChange {
			if *in.Status == entity.InvoiceStatusIssued && inv.Status == entity.InvoiceStatusDraft {
				issuedAt = true
			}
			inv.Status = *in.Status
			if inv.Status == entity.InvoiceStatusIssued && inv.IssueDate == nil {
				t := uc.now().UTC()
				inv.IssueDate = &t
			}
		}
		if err := invoicing.EnsureTotalsInRange(inv); err != nil {
			return err
		}
		inv.UpdatedAt = uc.now().UTC()
		return invoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("invoice_id", inv.ID).
		Str("status", inv.Status).
		Msg("factura actualizada")
	if issuedAt {
		uc.notifier.InvoiceIssued(snapshot(inv, items))
	}
	return toInvoiceResponse(inv, items), nil
}

// Delete borra lógicamente la factura; deja de aparecer en lecturas y listados.
func (uc *InvoiceUseCase) Delete(ctx context.Context, companyID, id string) error {
	id, ok := parseID(id)
	if !ok {
		return domain.NotFound("factura")
	}
	deleted, err := uc.invoiceRepo.SoftDelete(ctx, companyID, id, uc.now().UTC())
	if err != nil {
		return fmt.Errorf("borrar factura: %w", err)
	}
	if !deleted {
		return domain.NotFound("factura")
	}
	uc.log.Info().Str("company_id", companyID).Str("invoice_id", id).Msg("factura eliminada")
	return nil
}

// checkCustomer verifica que el cliente exista en el tenant.
func (uc *InvoiceUseCase) checkCustomer(ctx context.Context, companyID string, customerID *string) error {
	if customerID == nil || uc.customerRepo == nil {
		return nil
	}
	c, err := uc.customerRepo.GetByID(ctx, companyID, *customerID)
	if err != nil {
		return fmt.Errorf("obtener cliente: %w", err)
	}
	if c == nil {
		return domain.Invalid("customer_id", "el cliente no existe")
	}
	return nil
}
