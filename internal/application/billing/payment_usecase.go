package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/invoicing"
	"github.com/jhoicas/repairshop-api/internal/domain/money"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// PaymentUseCase liquida facturas: cobro en efectivo contra la caja abierta,
// cobro con tarjeta confirmado por el procesador y marcado manual.
// Toda liquidación bloquea la factura; dos cobros concurrentes sobre la misma
// factura se serializan y el segundo recibe conflicto.
type PaymentUseCase struct {
	txRunner BillingTxRunner
	notifier *AsyncNotifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewPaymentUseCase construye el caso de uso. notifier puede ser nil.
func NewPaymentUseCase(txRunner BillingTxRunner, notifier *AsyncNotifier, log zerolog.Logger) *PaymentUseCase {
	return &PaymentUseCase{
		txRunner: txRunner,
		notifier: notifier,
		log:      log.With().Str("component", "payments").Logger(),
		now:      time.Now,
	}
}

// CaptureCash cobra en efectivo el total exacto de la factura y lo acredita a la
// sesión de caja abierta. Factura, sesión y asiento del libro cambian juntos o no cambia nada.
func (uc *PaymentUseCase) CaptureCash(ctx context.Context, companyID, userID, invoiceID string, in dto.CashPaymentRequest) (*dto.InvoiceResponse, error) {
	invoiceID, ok := parseID(invoiceID)
	if !ok {
		return nil, domain.NotFound("factura")
	}
	verr := &domain.ValidationError{}
	if in.Amount == nil {
		verr.Add("amount", "el monto es obligatorio")
	} else if in.Amount.IsNegative() {
		verr.Add("amount", "el monto no puede ser negativo")
	}
	if strings.TrimSpace(in.SessionID) == "" {
		verr.Add("session_id", "la sesión de caja es obligatoria")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if in.SessionID, ok = parseID(in.SessionID); !ok {
		return nil, domain.NotFound("sesión de caja")
	}
	amount := money.Round(*in.Amount)

	var (
		inv   *entity.Invoice
		items []*entity.InvoiceItem
	)
	err := uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, drawerRepo repository.CashDrawerRepository) error {
		var err error
		inv, err = lockSettleable(ctx, invoiceRepo, companyID, invoiceID)
		if err != nil {
			return err
		}
		if err := checkTender(amount, inv.TotalAmount); err != nil {
			return err
		}

		session, err := drawerRepo.GetForUpdate(ctx, companyID, in.SessionID)
		if err != nil {
			return fmt.Errorf("bloquear sesión de caja: %w", err)
		}
		if session == nil {
			return domain.NotFound("sesión de caja")
		}
		if !session.IsOpen() {
			return domain.Conflict("la sesión de caja %s está cerrada", session.ID)
		}
		credited, err := drawerRepo.CreditCash(ctx, companyID, session.ID, amount)
		if err != nil {
			return fmt.Errorf("acreditar caja: %w", err)
		}
		if credited == nil {
			return domain.Conflict("la sesión de caja %s ya no está abierta", session.ID)
		}

		now := uc.now().UTC()
		if err := drawerRepo.AddMovement(ctx, &entity.CashDrawerMovement{
			ID:        uuid.New().String(),
			SessionID: session.ID,
			CompanyID: companyID,
			InvoiceID: inv.ID,
			Amount:    amount,
			CreatedBy: userID,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("registrar movimiento de caja: %w", err)
		}

		sessionID := session.ID
		inv.CashDrawerSessionID = &sessionID
		markPaid(inv, entity.PaymentMethodCash, "", in.Notes, now)
		inv.UpdatedAt = now
		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		items, err = invoiceRepo.ListItems(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("invoice_id", inv.ID).
		Str("session_id", in.SessionID).
		Str("amount", amount.StringFixed(money.Scale)).
		Msg("cobro en efectivo registrado")
	uc.notifier.PaymentReceived(snapshot(inv, items))
	return toInvoiceResponse(inv, items), nil
}

// CaptureCard registra un cobro con tarjeta ya aprobado por el procesador externo.
// No toca la caja.
func (uc *PaymentUseCase) CaptureCard(ctx context.Context, companyID, invoiceID string, in dto.CardPaymentRequest) (*dto.InvoiceResponse, error) {
	invoiceID, ok := parseID(invoiceID)
	if !ok {
		return nil, domain.NotFound("factura")
	}
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Reference) == "" {
		verr.Add("reference", "la referencia del procesador es obligatoria")
	}
	if in.Amount == nil {
		verr.Add("amount", "el monto es obligatorio")
	}
	if !in.Approved {
		verr.Add("approved", "el procesador no aprobó el cobro")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	amount := money.Round(*in.Amount)

	var (
		inv   *entity.Invoice
		items []*entity.InvoiceItem
	)
	err := uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.CashDrawerRepository) error {
		var err error
		inv, err = lockSettleable(ctx, invoiceRepo, companyID, invoiceID)
		if err != nil {
			return err
		}
		if err := checkTender(amount, inv.TotalAmount); err != nil {
			return err
		}
		now := uc.now().UTC()
		markPaid(inv, entity.PaymentMethodCard, in.Reference, in.Notes, now)
		inv.UpdatedAt = now
		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		items, err = invoiceRepo.ListItems(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("invoice_id", inv.ID).
		Str("reference", in.Reference).
		Msg("cobro con tarjeta registrado")
	uc.notifier.PaymentReceived(snapshot(inv, items))
	return toInvoiceResponse(inv, items), nil
}

// MarkAsPaid registra un pago recibido por fuera (cheque, transferencia, etc.).
// No acredita la caja aunque el método sea cash: ese cobro no queda en el arqueo.
func (uc *PaymentUseCase) MarkAsPaid(ctx context.Context, companyID, invoiceID string, in dto.MarkPaidRequest) (*dto.InvoiceResponse, error) {
	invoiceID, ok := parseID(invoiceID)
	if !ok {
		return nil, domain.NotFound("factura")
	}
	if !entity.IsValidPaymentMethod(in.PaymentMethod) {
		return nil, domain.Invalid("payment_method", "método de pago inválido (cash, card, check, bank_transfer, other)")
	}

	var (
		inv   *entity.Invoice
		items []*entity.InvoiceItem
	)
	err := uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.CashDrawerRepository) error {
		var err error
		inv, err = lockSettleable(ctx, invoiceRepo, companyID, invoiceID)
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		paidAt := now
		if in.PaidDate != nil {
			paidAt = in.PaidDate.UTC()
		}
		markPaid(inv, in.PaymentMethod, in.PaymentReference, in.PaymentNotes, paidAt)
		inv.UpdatedAt = now
		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		items, err = invoiceRepo.ListItems(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("invoice_id", inv.ID).
		Str("payment_method", in.PaymentMethod).
		Msg("factura marcada como pagada")
	uc.notifier.PaymentReceived(snapshot(inv, items))
	return toInvoiceResponse(inv, items), nil
}

func lockSettleable(ctx context.Context, invoiceRepo repository.InvoiceRepository, companyID, invoiceID string) (*entity.Invoice, error) {
	inv, err := invoiceRepo.GetForUpdate(ctx, companyID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("bloquear factura: %w", err)
	}
	if inv == nil {
		return nil, domain.NotFound("factura")
	}
	if err := invoicing.EnsureSettleable(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// checkTender exige que el monto entregado sea exactamente el total.
func checkTender(tendered, total decimal.Decimal) error {
	if !money.Equal(tendered, total) {
		return domain.Invalid("amount", fmt.Sprintf("el monto %s no coincide con el total de la factura %s",
			tendered.StringFixed(money.Scale), total.StringFixed(money.Scale)))
	}
	return nil
}

func markPaid(inv *entity.Invoice, method, reference, notes string, at time.Time) {
	inv.Status = entity.InvoiceStatusPaid
	inv.PaymentMethod = method
	inv.PaymentReference = reference
	inv.PaymentNotes = notes
	inv.PaidDate = &at
}
