package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
)

// CashDrawerFilter criterios del historial de sesiones.
type CashDrawerFilter struct {
	LocationID *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// CashDrawerRepository puerto de persistencia de sesiones de caja y su libro de movimientos.
type CashDrawerRepository interface {
	// Create inserta una sesión abierta. Devuelve domain.ErrDuplicate si ya hay
	// una sesión abierta para el mismo tenant y ubicación.
	Create(ctx context.Context, session *entity.CashDrawerSession) error
	GetByID(ctx context.Context, companyID, id string) (*entity.CashDrawerSession, error)
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.CashDrawerSession, error)
	GetOpen(ctx context.Context, companyID string, locationID *string) (*entity.CashDrawerSession, error)
	List(ctx context.Context, companyID string, filter CashDrawerFilter) ([]*entity.CashDrawerSession, int, error)
	// CreditCash suma amount al total de ventas en efectivo de una sesión abierta
	// en una sola operación atómica. Devuelve nil si la sesión no está abierta.
	CreditCash(ctx context.Context, companyID, id string, amount decimal.Decimal) (*entity.CashDrawerSession, error)
	// Close persiste los campos de cierre; solo afecta sesiones abiertas.
	Close(ctx context.Context, session *entity.CashDrawerSession) error
	AddMovement(ctx context.Context, movement *entity.CashDrawerMovement) error
	ListMovements(ctx context.Context, sessionID string) ([]*entity.CashDrawerMovement, error)
}
