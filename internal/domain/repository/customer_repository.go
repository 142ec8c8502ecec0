package repository

import (
	"context"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
)

// CustomerRepository acceso de solo lectura al directorio de clientes.
type CustomerRepository interface {
	// GetByID devuelve (nil, nil) si el cliente no existe en el tenant.
	GetByID(ctx context.Context, companyID, id string) (*entity.Customer, error)
}
