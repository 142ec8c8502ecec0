package memory

import (
	"context"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo directorio de clientes en memoria.
type CustomerRepo struct {
	store *Store
}

func (r *CustomerRepo) GetByID(_ context.Context, companyID, id string) (*entity.Customer, error) {
	var out *entity.Customer
	r.store.view(func(st *state) {
		if c, ok := st.customers[id]; ok && c.CompanyID == companyID {
			out = &c
		}
	})
	return out, nil
}
