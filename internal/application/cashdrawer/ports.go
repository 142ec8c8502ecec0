package cashdrawer

import (
	"context"

	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con el repo de caja atado a ella.
type TxRunner interface {
	RunDrawer(ctx context.Context, fn func(drawerRepo repository.CashDrawerRepository) error) error
}
