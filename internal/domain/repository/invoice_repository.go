package repository

import (
	"context"
	"time"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
)

// InvoiceFilter criterios de listado de facturas (siempre acotado a un tenant).
type InvoiceFilter struct {
	CustomerID string
	TicketID   string
	Status     string
	Limit      int
	Offset     int
}

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
// Las lecturas devuelven (nil, nil) cuando el recurso no existe, pertenece a otro
// tenant o fue eliminado lógicamente.
type InvoiceRepository interface {
	// Create inserta la factura. Devuelve domain.ErrDuplicate si el número ya existe.
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	// GetForUpdate lee la factura bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	List(ctx context.Context, companyID string, filter InvoiceFilter) ([]*entity.Invoice, int, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	// SoftDelete marca deleted_at; false si no había nada que borrar.
	SoftDelete(ctx context.Context, companyID, id string, at time.Time) (bool, error)

	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	GetItem(ctx context.Context, invoiceID, itemID string) (*entity.InvoiceItem, error)
	UpdateItem(ctx context.Context, item *entity.InvoiceItem) error
	DeleteItem(ctx context.Context, invoiceID, itemID string) (bool, error)
	ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
}
