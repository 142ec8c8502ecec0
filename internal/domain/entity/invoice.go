package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusIssued    = "issued"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Métodos de pago admitidos.
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodCheck        = "check"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodOther        = "other"
)

// Invoice representa la cabecera de una factura del taller.
type Invoice struct {
	ID                  string
	CompanyID           string
	InvoiceNumber       string // INV-YYYYMM-XXXXXXXXXX, único global
	CustomerID          *string
	TicketID            *string
	Subtotal            decimal.Decimal
	TaxRate             decimal.Decimal // porcentaje 0..100
	TaxAmount           decimal.Decimal
	TaxOverride         bool // TaxAmount fijado manualmente; no se recalcula
	DiscountAmount      decimal.Decimal
	TotalAmount         decimal.Decimal
	Status              string
	IssueDate           *time.Time
	DueDate             *time.Time
	PaidDate            *time.Time
	PaymentMethod       string
	PaymentReference    string
	PaymentNotes        string
	CashDrawerSessionID *string
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// IsPaid indica si la factura ya fue liquidada.
func (i *Invoice) IsPaid() bool { return i.Status == InvoiceStatusPaid }

// IsValidInvoiceStatus valida el literal de estado.
func IsValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentMethod valida el literal de método de pago.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodCheck, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}
