package billing

import (
	"context"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// BillingTxRunner ejecuta fn dentro de una transacción con repos de facturación y caja
// atados a ella. Si fn devuelve error se hace rollback y ningún cambio es visible.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		drawerRepo repository.CashDrawerRepository,
	) error) error
}

// InvoiceDocument instantánea de una factura para PDF y notificaciones.
type InvoiceDocument struct {
	Invoice  entity.Invoice
	Items    []entity.InvoiceItem
	Customer *entity.Customer // nil si la factura no tiene cliente o no se encontró
}

// InvoicePDFGenerator genera la representación imprimible de la factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc InvoiceDocument) ([]byte, error)
}

// Notifier entrega avisos al cliente (email). Se invoca fuera de la transacción.
type Notifier interface {
	InvoiceIssued(ctx context.Context, doc InvoiceDocument) error
	PaymentReceived(ctx context.Context, doc InvoiceDocument) error
}
