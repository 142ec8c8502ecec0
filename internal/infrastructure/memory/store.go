// Package memory implementa los puertos de persistencia en memoria. Sirve para
// tests y para levantar la API sin PostgreSQL (STORE_DRIVER=memory).
//
// Las transacciones se serializan con un mutex y trabajan sobre una copia de
// los datos; el commit reemplaza el estado completo y un error lo descarta.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/repairshop-api/internal/application/billing"
	"github.com/jhoicas/repairshop-api/internal/application/cashdrawer"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

var (
	_ billing.BillingTxRunner = (*Store)(nil)
	_ cashdrawer.TxRunner     = (*Store)(nil)
)

type state struct {
	invoices  map[string]entity.Invoice
	items     map[string][]entity.InvoiceItem // por invoice_id, en orden de alta
	sessions  map[string]entity.CashDrawerSession
	movements map[string][]entity.CashDrawerMovement // por session_id
	customers map[string]entity.Customer
}

func newState() *state {
	return &state{
		invoices:  make(map[string]entity.Invoice),
		items:     make(map[string][]entity.InvoiceItem),
		sessions:  make(map[string]entity.CashDrawerSession),
		movements: make(map[string][]entity.CashDrawerMovement),
		customers: make(map[string]entity.Customer),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]entity.InvoiceItem(nil), v...)
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = append([]entity.CashDrawerMovement(nil), v...)
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	return c
}

// Store almacenamiento en memoria seguro para uso concurrente.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// RunBilling ejecuta fn con repos de facturación y caja sobre una copia aislada.
func (s *Store) RunBilling(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	drawerRepo repository.CashDrawerRepository,
) error) error {
	return s.run(ctx, func(tx *state) error {
		return fn(&InvoiceRepo{tx: tx}, &CashDrawerRepo{tx: tx})
	})
}

// RunDrawer ejecuta fn con el repo de caja sobre una copia aislada.
func (s *Store) RunDrawer(ctx context.Context, fn func(drawerRepo repository.CashDrawerRepository) error) error {
	return s.run(ctx, func(tx *state) error {
		return fn(&CashDrawerRepo{tx: tx})
	})
}

func (s *Store) run(ctx context.Context, fn func(tx *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.st.clone()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// view ejecuta fn con el estado confirmado bajo el mutex (operaciones fuera de tx).
func (s *Store) view(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

// Invoices repo de facturas fuera de transacción.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{store: s} }

// CashDrawers repo de caja fuera de transacción.
func (s *Store) CashDrawers() *CashDrawerRepo { return &CashDrawerRepo{store: s} }

// Customers directorio de clientes.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{store: s} }

// AddCustomer registra un cliente (seed de tests y modo demo).
func (s *Store) AddCustomer(c entity.Customer) {
	s.view(func(st *state) { st.customers[c.ID] = c })
}

// access resuelve el estado a usar: el de la tx o el confirmado bajo mutex.
func access(store *Store, tx *state, fn func(st *state)) {
	if tx != nil {
		fn(tx)
		return
	}
	store.view(fn)
}
