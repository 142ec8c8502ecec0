package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una sesión de caja.
const (
	CashDrawerStatusOpen   = "open"
	CashDrawerStatusClosed = "closed"
)

// CashDrawerSession turno de caja por tenant y ubicación (LocationID nil = ubicación por defecto).
// Los campos de cierre quedan en nil mientras la sesión está abierta.
type CashDrawerSession struct {
	ID             string
	CompanyID      string
	LocationID     *string
	Status         string
	OpenedBy       string
	OpeningAmount  decimal.Decimal
	CashSalesTotal decimal.Decimal // suma de cobros en efectivo registrados en la sesión
	OpenedAt       time.Time
	ClosedBy       *string
	ClosingAmount  *decimal.Decimal
	ExpectedAmount *decimal.Decimal
	Variance       *decimal.Decimal
	CountedChecks  *decimal.Decimal
	CountedCard    *decimal.Decimal
	ClosedAt       *time.Time
	Notes          string
}

// IsOpen indica si la sesión acepta cobros.
func (s *CashDrawerSession) IsOpen() bool { return s.Status == CashDrawerStatusOpen }

// SameLocation compara la ubicación de la sesión con loc (nil = por defecto).
func (s *CashDrawerSession) SameLocation(loc *string) bool {
	if s.LocationID == nil || loc == nil {
		return s.LocationID == nil && loc == nil
	}
	return *s.LocationID == *loc
}

// CashDrawerMovement asiento inmutable del libro de la sesión: un cobro en efectivo.
type CashDrawerMovement struct {
	ID        string
	SessionID string
	CompanyID string
	InvoiceID string
	Amount    decimal.Decimal
	CreatedBy string
	CreatedAt time.Time
}
