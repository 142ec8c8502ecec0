package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de línea de factura.
const (
	ItemTypeService = "service"
	ItemTypePart    = "part"
	ItemTypeLabor   = "labor"
	ItemTypeOther   = "other"
)

// InvoiceItem línea de una factura. DiscountAmount y Subtotal son derivados.
type InvoiceItem struct {
	ID              string
	InvoiceID       string
	Description     string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	Subtotal        decimal.Decimal
	Type            string
	InventoryItemID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsValidItemType valida el literal de tipo de línea.
func IsValidItemType(t string) bool {
	switch t {
	case ItemTypeService, ItemTypePart, ItemTypeLabor, ItemTypeOther:
		return true
	}
	return false
}
