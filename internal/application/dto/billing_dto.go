package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices.
// Los montos omitidos se calculan; TaxAmount explícito fija el impuesto manualmente.
type CreateInvoiceRequest struct {
	CustomerID     *string          `json:"customer_id,omitempty"`
	TicketID       *string          `json:"ticket_id,omitempty"`
	Subtotal       *decimal.Decimal `json:"subtotal,omitempty"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	TotalAmount    *decimal.Decimal `json:"total_amount,omitempty"`
	IssueDate      *time.Time       `json:"issue_date,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

// UpdateInvoiceRequest body para PUT /api/invoices/:id. Solo se aplican los campos presentes.
type UpdateInvoiceRequest struct {
	CustomerID     *string          `json:"customer_id,omitempty"`
	TicketID       *string          `json:"ticket_id,omitempty"`
	Subtotal       *decimal.Decimal `json:"subtotal,omitempty"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	Status         *string          `json:"status,omitempty"`
	IssueDate      *time.Time       `json:"issue_date,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// HasFinancialChange indica si el parche toca montos.
func (r UpdateInvoiceRequest) HasFinancialChange() bool {
	return r.Subtotal != nil || r.TaxRate != nil || r.TaxAmount != nil || r.DiscountAmount != nil
}

// InvoiceListRequest filtros de GET /api/invoices.
type InvoiceListRequest struct {
	PageRequest
	CustomerID string `query:"customer_id"`
	TicketID   string `query:"ticket_id"`
	Status     string `query:"status"`
}

// InvoiceResponse factura con líneas.
type InvoiceResponse struct {
	ID                  string                `json:"id"`
	CompanyID           string                `json:"company_id"`
	InvoiceNumber       string                `json:"invoice_number"`
	CustomerID          *string               `json:"customer_id"`
	TicketID            *string               `json:"ticket_id"`
	Subtotal            decimal.Decimal       `json:"subtotal"`
	TaxRate             decimal.Decimal       `json:"tax_rate"`
	TaxAmount           decimal.Decimal       `json:"tax_amount"`
	DiscountAmount      decimal.Decimal       `json:"discount_amount"`
	TotalAmount         decimal.Decimal       `json:"total_amount"`
	Status              string                `json:"status"`
	IssueDate           *time.Time            `json:"issue_date"`
	DueDate             *time.Time            `json:"due_date"`
	PaidDate            *time.Time            `json:"paid_date"`
	PaymentMethod       string                `json:"payment_method,omitempty"`
	PaymentReference    string                `json:"payment_reference,omitempty"`
	PaymentNotes        string                `json:"payment_notes,omitempty"`
	CashDrawerSessionID *string               `json:"cash_drawer_session_id,omitempty"`
	Notes               string                `json:"notes"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	Items               []InvoiceItemResponse `json:"items"`
}

// InvoiceListResponse página de facturas (sin líneas).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreateInvoiceItemRequest body para POST /api/invoices/:id/items.
type CreateInvoiceItemRequest struct {
	Description     string           `json:"description"`
	Quantity        int              `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Type            string           `json:"type"`
	InventoryItemID *string          `json:"inventory_item_id,omitempty"`
}

// UpdateInvoiceItemRequest body para PUT /api/invoices/:id/items/:itemId.
type UpdateInvoiceItemRequest struct {
	Description     *string          `json:"description,omitempty"`
	Quantity        *int             `json:"quantity,omitempty"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Type            *string          `json:"type,omitempty"`
	InventoryItemID *string          `json:"inventory_item_id,omitempty"`
}

// InvoiceItemResponse línea de factura.
type InvoiceItemResponse struct {
	ID              string          `json:"id"`
	InvoiceID       string          `json:"invoice_id"`
	Description     string          `json:"description"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Type            string          `json:"type"`
	InventoryItemID *string         `json:"inventory_item_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MarkPaidRequest body para POST /api/invoices/:id/paid.
type MarkPaidRequest struct {
	PaymentMethod    string     `json:"payment_method"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	PaymentNotes     string     `json:"payment_notes,omitempty"`
	PaidDate         *time.Time `json:"paid_date,omitempty"`
}

// CashPaymentRequest body para POST /api/invoices/:id/payments/cash.
type CashPaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	SessionID string           `json:"session_id"`
	Notes     string           `json:"notes,omitempty"`
}

// CardPaymentRequest confirmación del procesador externo de tarjetas.
type CardPaymentRequest struct {
	Reference string           `json:"reference"`
	Amount    *decimal.Decimal `json:"amount"`
	Approved  bool             `json:"approved"`
	Notes     string           `json:"notes,omitempty"`
}
