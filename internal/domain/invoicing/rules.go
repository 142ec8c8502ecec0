package invoicing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/money"
)

var transitions = map[string][]string{
	entity.InvoiceStatusDraft:   {entity.InvoiceStatusIssued, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusIssued:  {entity.InvoiceStatusOverdue, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusOverdue: {entity.InvoiceStatusIssued, entity.InvoiceStatusCancelled},
}

// CheckTransition valida un cambio de estado pedido vía actualización.
// paid solo se alcanza capturando un pago; paid y cancelled son terminales.
func CheckTransition(from, to string) error {
	if !entity.IsValidInvoiceStatus(to) {
		return domain.Invalid("status", "estado desconocido: "+to)
	}
	if from == to {
		return nil
	}
	if to == entity.InvoiceStatusPaid {
		return domain.Conflict("el estado paid solo se asigna al registrar el pago")
	}
	if from == entity.InvoiceStatusPaid || from == entity.InvoiceStatusCancelled {
		return domain.Conflict("la factura está en estado %s y no admite cambios de estado", from)
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return domain.Conflict("transición de estado no permitida: %s -> %s", from, to)
}

// EnsureEditable rechaza cambios financieros o de líneas sobre facturas pagadas o anuladas.
func EnsureEditable(inv *entity.Invoice) error {
	switch inv.Status {
	case entity.InvoiceStatusPaid:
		return domain.Conflict("la factura %s está pagada y es inmutable", inv.InvoiceNumber)
	case entity.InvoiceStatusCancelled:
		return domain.Conflict("la factura %s está anulada", inv.InvoiceNumber)
	}
	return nil
}

// EnsureSettleable rechaza cobrar una factura ya pagada o anulada.
func EnsureSettleable(inv *entity.Invoice) error {
	switch inv.Status {
	case entity.InvoiceStatusPaid:
		return domain.Conflict("la factura %s ya fue pagada", inv.InvoiceNumber)
	case entity.InvoiceStatusCancelled:
		return domain.Conflict("la factura %s está anulada y no admite pagos", inv.InvoiceNumber)
	}
	return nil
}

// ItemInput valores de una línea a validar (tras fusionar un parche).
type ItemInput struct {
	Description     string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Type            string
}

// ValidateItem acumula los errores de campo de una línea.
func ValidateItem(in ItemInput) error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Description) == "" {
		verr.Add("description", "la descripción es obligatoria")
	}
	switch {
	case in.Quantity <= 0:
		verr.Add("quantity", "la cantidad debe ser mayor que cero")
	case in.Quantity > math.MaxInt32:
		verr.Add("quantity", "la cantidad excede el máximo permitido")
	}
	switch {
	case in.UnitPrice.IsNegative():
		verr.Add("unit_price", "el precio unitario no puede ser negativo")
	case !money.InRange(in.UnitPrice):
		verr.Add("unit_price", "el precio unitario excede el máximo permitido")
	case in.Quantity > 0 && !money.InRange(decimal.NewFromInt(int64(in.Quantity)).Mul(in.UnitPrice)):
		verr.Add("unit_price", "el importe de la línea excede el máximo permitido")
	}
	if !money.ValidPercent(in.DiscountPercent) {
		verr.Add("discount_percent", "el descuento debe estar entre 0 y 100")
	}
	if !entity.IsValidItemType(in.Type) {
		verr.Add("type", "tipo de línea inválido (service, part, labor, other)")
	}
	return verr.Err()
}

// EnsureTotalsInRange rechaza una factura cuyos montos no caben en NUMERIC(14,2).
func EnsureTotalsInRange(inv *entity.Invoice) error {
	verr := &domain.ValidationError{}
	for _, f := range []struct {
		field string
		value decimal.Decimal
	}{
		{"subtotal", inv.Subtotal},
		{"tax_amount", inv.TaxAmount},
		{"discount_amount", inv.DiscountAmount},
		{"total_amount", inv.TotalAmount},
	} {
		if !money.InRange(f.value) {
			verr.Add(f.field, "el monto excede el máximo permitido")
		}
	}
	return verr.Err()
}
