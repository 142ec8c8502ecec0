package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo facturas en memoria.
type InvoiceRepo struct {
	store *Store
	tx    *state
}

func (r *InvoiceRepo) with(fn func(st *state)) { access(r.store, r.tx, fn) }

func visible(st *state, companyID, id string) (entity.Invoice, bool) {
	inv, ok := st.invoices[id]
	if !ok || inv.CompanyID != companyID || inv.DeletedAt != nil {
		return entity.Invoice{}, false
	}
	return inv, true
}

func (r *InvoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	var err error
	r.with(func(st *state) {
		for _, existing := range st.invoices {
			if existing.InvoiceNumber == invoice.InvoiceNumber || existing.ID == invoice.ID {
				err = domain.ErrDuplicate
				return
			}
		}
		st.invoices[invoice.ID] = *invoice
	})
	return err
}

func (r *InvoiceRepo) GetByID(_ context.Context, companyID, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	r.with(func(st *state) {
		if inv, ok := visible(st, companyID, id); ok {
			out = &inv
		}
	})
	return out, nil
}

// GetForUpdate equivale a GetByID: las transacciones ya están serializadas.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *InvoiceRepo) List(_ context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	var matched []entity.Invoice
	r.with(func(st *state) {
		for _, inv := range st.invoices {
			if inv.CompanyID != companyID || inv.DeletedAt != nil {
				continue
			}
			if f.Status != "" && inv.Status != f.Status {
				continue
			}
			if f.CustomerID != "" && (inv.CustomerID == nil || *inv.CustomerID != f.CustomerID) {
				continue
			}
			if f.TicketID != "" && (inv.TicketID == nil || *inv.TicketID != f.TicketID) {
				continue
			}
			matched = append(matched, inv)
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	total := len(matched)
	page := paginate(len(matched), f.Limit, f.Offset)
	out := make([]*entity.Invoice, 0, page.end-page.start)
	for i := page.start; i < page.end; i++ {
		inv := matched[i]
		out = append(out, &inv)
	}
	return out, total, nil
}

func (r *InvoiceRepo) Update(_ context.Context, invoice *entity.Invoice) error {
	var err error
	r.with(func(st *state) {
		if _, ok := visible(st, invoice.CompanyID, invoice.ID); !ok {
			err = domain.ErrNotFound
			return
		}
		st.invoices[invoice.ID] = *invoice
	})
	return err
}

func (r *InvoiceRepo) SoftDelete(_ context.Context, companyID, id string, at time.Time) (bool, error) {
	var deleted bool
	r.with(func(st *state) {
		inv, ok := visible(st, companyID, id)
		if !ok {
			return
		}
		inv.DeletedAt = &at
		inv.UpdatedAt = at
		st.invoices[id] = inv
		deleted = true
	})
	return deleted, nil
}

func (r *InvoiceRepo) CreateItem(_ context.Context, item *entity.InvoiceItem) error {
	r.with(func(st *state) {
		st.items[item.InvoiceID] = append(st.items[item.InvoiceID], *item)
	})
	return nil
}

func (r *InvoiceRepo) GetItem(_ context.Context, invoiceID, itemID string) (*entity.InvoiceItem, error) {
	var out *entity.InvoiceItem
	r.with(func(st *state) {
		for _, it := range st.items[invoiceID] {
			if it.ID == itemID {
				item := it
				out = &item
				return
			}
		}
	})
	return out, nil
}

func (r *InvoiceRepo) UpdateItem(_ context.Context, item *entity.InvoiceItem) error {
	err := domain.ErrNotFound
	r.with(func(st *state) {
		list := st.items[item.InvoiceID]
		for i := range list {
			if list[i].ID == item.ID {
				list[i] = *item
				err = nil
				return
			}
		}
	})
	return err
}

func (r *InvoiceRepo) DeleteItem(_ context.Context, invoiceID, itemID string) (bool, error) {
	var deleted bool
	r.with(func(st *state) {
		list := st.items[invoiceID]
		for i := range list {
			if list[i].ID == itemID {
				st.items[invoiceID] = append(list[:i:i], list[i+1:]...)
				deleted = true
				return
			}
		}
	})
	return deleted, nil
}

func (r *InvoiceRepo) ListItems(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	var out []*entity.InvoiceItem
	r.with(func(st *state) {
		list := st.items[invoiceID]
		out = make([]*entity.InvoiceItem, 0, len(list))
		for _, it := range list {
			item := it
			out = append(out, &item)
		}
	})
	return out, nil
}

type window struct{ start, end int }

func paginate(n, limit, offset int) window {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return window{start: offset, end: end}
}
