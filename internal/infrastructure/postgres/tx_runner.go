package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/repairshop-api/internal/application/billing"
	"github.com/jhoicas/repairshop-api/internal/application/cashdrawer"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// Ensure TxRunner implements billing.BillingTxRunner and cashdrawer.TxRunner.
var _ billing.BillingTxRunner = (*TxRunner)(nil)
var _ cashdrawer.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBilling inicia una transacción con repos de facturación y caja (cobros, líneas, cabecera).
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	drawerRepo repository.CashDrawerRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewInvoiceRepository(tx), NewCashDrawerRepository(tx))
	})
}

// RunDrawer inicia una transacción con el repo de caja (apertura y cierre).
func (r *TxRunner) RunDrawer(ctx context.Context, fn func(drawerRepo repository.CashDrawerRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewCashDrawerRepository(tx))
	})
}

// run hace Begin, ejecuta fn y Commit; cualquier error deja la tx en Rollback.
func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrDependency, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", domain.ErrDependency, err)
	}
	return nil
}
