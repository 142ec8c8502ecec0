package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo lectura del directorio de clientes (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// GetByID obtiene un cliente del tenant; (nil, nil) si no existe.
func (r *CustomerRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Customer, error) {
	query := `
		SELECT id, company_id, name, tax_id, COALESCE(email, ''), COALESCE(phone, ''), created_at
		FROM customers WHERE id = $1 AND company_id = $2`
	var c entity.Customer
	err := r.q.QueryRow(ctx, query, id, companyID).Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}
