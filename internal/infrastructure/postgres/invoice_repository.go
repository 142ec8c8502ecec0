package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, company_id, invoice_number, customer_id, ticket_id,
	subtotal, tax_rate, tax_amount, tax_override, discount_amount, total_amount,
	status, issue_date, due_date, paid_date,
	payment_method, payment_reference, payment_notes, cash_drawer_session_id,
	notes, created_at, updated_at, deleted_at`

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.InvoiceNumber, &inv.CustomerID, &inv.TicketID,
		&inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.TaxOverride, &inv.DiscountAmount, &inv.TotalAmount,
		&inv.Status, &inv.IssueDate, &inv.DueDate, &inv.PaidDate,
		&inv.PaymentMethod, &inv.PaymentReference, &inv.PaymentNotes, &inv.CashDrawerSessionID,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt, &inv.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserta la cabecera. Colisión de invoice_number → domain.ErrDuplicate.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.CompanyID, inv.InvoiceNumber, inv.CustomerID, inv.TicketID,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.TaxOverride, inv.DiscountAmount, inv.TotalAmount,
		inv.Status, inv.IssueDate, inv.DueDate, inv.PaidDate,
		inv.PaymentMethod, inv.PaymentReference, inv.PaymentNotes, inv.CashDrawerSessionID,
		inv.Notes, inv.CreatedAt, inv.UpdatedAt, inv.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura visible del tenant.
func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.get(ctx, companyID, id, "")
}

// GetForUpdate igual que GetByID pero con SELECT ... FOR UPDATE (solo dentro de tx).
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.get(ctx, companyID, id, " FOR UPDATE")
}

func (r *InvoiceRepo) get(ctx context.Context, companyID, id, lock string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL` + lock
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List pagina facturas del tenant ordenadas por created_at DESC.
func (r *InvoiceRepo) List(ctx context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	conds := []string{"company_id = $1", "deleted_at IS NULL"}
	args := []any{companyID}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.TicketID != "" {
		args = append(args, f.TicketID)
		conds = append(conds, fmt.Sprintf("ticket_id = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, invoiceColumns, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, total, rows.Err()
}

// Update persiste cabecera, montos, estado y datos de pago.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE invoices SET
			customer_id = $3, ticket_id = $4,
			subtotal = $5, tax_rate = $6, tax_amount = $7, tax_override = $8,
			discount_amount = $9, total_amount = $10, status = $11,
			issue_date = $12, due_date = $13, paid_date = $14,
			payment_method = $15, payment_reference = $16, payment_notes = $17,
			cash_drawer_session_id = $18, notes = $19, updated_at = $20
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.CompanyID,
		inv.CustomerID, inv.TicketID,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.TaxOverride,
		inv.DiscountAmount, inv.TotalAmount, inv.Status,
		inv.IssueDate, inv.DueDate, inv.PaidDate,
		inv.PaymentMethod, inv.PaymentReference, inv.PaymentNotes,
		inv.CashDrawerSessionID, inv.Notes, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca deleted_at en una factura visible.
func (r *InvoiceRepo) SoftDelete(ctx context.Context, companyID, id string, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`, id, companyID, at)
	if err != nil {
		return false, fmt.Errorf("soft delete invoice: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const itemColumns = `
	id, invoice_id, description, quantity, unit_price, discount_percent,
	discount_amount, subtotal, type, inventory_item_id, created_at, updated_at`

func scanItem(row rowScanner) (*entity.InvoiceItem, error) {
	var it entity.InvoiceItem
	err := row.Scan(
		&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.DiscountPercent,
		&it.DiscountAmount, &it.Subtotal, &it.Type, &it.InventoryItemID, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateItem inserta una línea.
func (r *InvoiceRepo) CreateItem(ctx context.Context, it *entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.InvoiceID, it.Description, it.Quantity, it.UnitPrice, it.DiscountPercent,
		it.DiscountAmount, it.Subtotal, it.Type, it.InventoryItemID, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// GetItem obtiene una línea de la factura indicada.
func (r *InvoiceRepo) GetItem(ctx context.Context, invoiceID, itemID string) (*entity.InvoiceItem, error) {
	query := `SELECT ` + itemColumns + ` FROM invoice_items WHERE id = $1 AND invoice_id = $2`
	it, err := scanItem(r.q.QueryRow(ctx, query, itemID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice item: %w", err)
	}
	return it, nil
}

// UpdateItem persiste los campos editables y derivados de una línea.
func (r *InvoiceRepo) UpdateItem(ctx context.Context, it *entity.InvoiceItem) error {
	query := `
		UPDATE invoice_items SET
			description = $3, quantity = $4, unit_price = $5, discount_percent = $6,
			discount_amount = $7, subtotal = $8, type = $9, inventory_item_id = $10, updated_at = $11
		WHERE id = $1 AND invoice_id = $2`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.InvoiceID,
		it.Description, it.Quantity, it.UnitPrice, it.DiscountPercent,
		it.DiscountAmount, it.Subtotal, it.Type, it.InventoryItemID, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteItem borra físicamente una línea.
func (r *InvoiceRepo) DeleteItem(ctx context.Context, invoiceID, itemID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE id = $1 AND invoice_id = $2`, itemID, invoiceID)
	if err != nil {
		return false, fmt.Errorf("delete invoice item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListItems devuelve las líneas en orden de alta.
func (r *InvoiceRepo) ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `SELECT ` + itemColumns + ` FROM invoice_items WHERE invoice_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.InvoiceItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}
