package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/money"
)

func toInvoiceResponse(inv *entity.Invoice, items []*entity.InvoiceItem) *dto.InvoiceResponse {
	out := &dto.InvoiceResponse{
		ID:                  inv.ID,
		CompanyID:           inv.CompanyID,
		InvoiceNumber:       inv.InvoiceNumber,
		CustomerID:          inv.CustomerID,
		TicketID:            inv.TicketID,
		Subtotal:            inv.Subtotal,
		TaxRate:             inv.TaxRate,
		TaxAmount:           inv.TaxAmount,
		DiscountAmount:      inv.DiscountAmount,
		TotalAmount:         inv.TotalAmount,
		Status:              inv.Status,
		IssueDate:           inv.IssueDate,
		DueDate:             inv.DueDate,
		PaidDate:            inv.PaidDate,
		PaymentMethod:       inv.PaymentMethod,
		PaymentReference:    inv.PaymentReference,
		PaymentNotes:        inv.PaymentNotes,
		CashDrawerSessionID: inv.CashDrawerSessionID,
		Notes:               inv.Notes,
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
		Items:               make([]dto.InvoiceItemResponse, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, *toItemResponse(it))
	}
	return out
}

func toItemResponse(it *entity.InvoiceItem) *dto.InvoiceItemResponse {
	return &dto.InvoiceItemResponse{
		ID:              it.ID,
		InvoiceID:       it.InvoiceID,
		Description:     it.Description,
		Quantity:        it.Quantity,
		UnitPrice:       it.UnitPrice,
		DiscountPercent: it.DiscountPercent,
		DiscountAmount:  it.DiscountAmount,
		Subtotal:        it.Subtotal,
		Type:            it.Type,
		InventoryItemID: it.InventoryItemID,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

// snapshot copia factura y líneas para usarlas fuera de la transacción.
func snapshot(inv *entity.Invoice, items []*entity.InvoiceItem) InvoiceDocument {
	doc := InvoiceDocument{Invoice: *inv, Items: make([]entity.InvoiceItem, 0, len(items))}
	for _, it := range items {
		doc.Items = append(doc.Items, *it)
	}
	return doc
}

// parseID valida un uuid y devuelve su forma canónica; los almacenes comparan
// ids como texto.
func parseID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// normalizeOptionalID canoniza id o registra el campo como inválido.
func normalizeOptionalID(verr *domain.ValidationError, field string, id *string) *string {
	if id == nil {
		return nil
	}
	canonical, ok := parseID(*id)
	if !ok {
		verr.Add(field, "identificador inválido")
		return id
	}
	return &canonical
}

// checkAmount rechaza montos negativos o que no caben en NUMERIC(14,2).
func checkAmount(verr *domain.ValidationError, field string, v *decimal.Decimal) {
	switch {
	case v == nil:
	case v.IsNegative():
		verr.Add(field, "no puede ser negativo")
	case !money.InRange(*v):
		verr.Add(field, "excede el máximo permitido")
	}
}

func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}
