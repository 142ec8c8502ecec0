package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

var _ repository.CashDrawerRepository = (*CashDrawerRepo)(nil)

// CashDrawerRepo implementación de CashDrawerRepository (usable con pool o tx).
type CashDrawerRepo struct {
	q Querier
}

// NewCashDrawerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCashDrawerRepository(q Querier) *CashDrawerRepo {
	return &CashDrawerRepo{q: q}
}

const sessionColumns = `
	id, company_id, location_id, status, opened_by, opening_amount, cash_sales_total, opened_at,
	closed_by, closing_amount, expected_amount, variance, counted_checks, counted_card, closed_at, notes`

func scanSession(row rowScanner) (*entity.CashDrawerSession, error) {
	var (
		s                           entity.CashDrawerSession
		closing, expected, variance decimal.NullDecimal
		countedChecks, countedCard  decimal.NullDecimal
	)
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.LocationID, &s.Status, &s.OpenedBy, &s.OpeningAmount, &s.CashSalesTotal, &s.OpenedAt,
		&s.ClosedBy, &closing, &expected, &variance, &countedChecks, &countedCard, &s.ClosedAt, &s.Notes,
	)
	if err != nil {
		return nil, err
	}
	s.ClosingAmount = decimalPtr(closing)
	s.ExpectedAmount = decimalPtr(expected)
	s.Variance = decimalPtr(variance)
	s.CountedChecks = decimalPtr(countedChecks)
	s.CountedCard = decimalPtr(countedCard)
	return &s, nil
}

// Create inserta una sesión abierta. El índice único parcial rechaza una
// segunda sesión abierta para el mismo tenant y ubicación → domain.ErrDuplicate.
func (r *CashDrawerRepo) Create(ctx context.Context, s *entity.CashDrawerSession) error {
	query := `
		INSERT INTO cash_drawer_sessions (id, company_id, location_id, status, opened_by,
			opening_amount, cash_sales_total, opened_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.LocationID, s.Status, s.OpenedBy,
		s.OpeningAmount, s.CashSalesTotal, s.OpenedAt, s.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cash drawer session: %w", err)
	}
	return nil
}

// GetByID obtiene una sesión del tenant.
func (r *CashDrawerRepo) GetByID(ctx context.Context, companyID, id string) (*entity.CashDrawerSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM cash_drawer_sessions WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetForUpdate obtiene la sesión bloqueando la fila (solo dentro de tx).
func (r *CashDrawerRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.CashDrawerSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM cash_drawer_sessions WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

// GetOpen obtiene la sesión abierta de la ubicación (NULL = ubicación por defecto).
func (r *CashDrawerRepo) GetOpen(ctx context.Context, companyID string, locationID *string) (*entity.CashDrawerSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_drawer_sessions
		WHERE company_id = $1 AND status = 'open' AND location_id IS NOT DISTINCT FROM $2::uuid
		LIMIT 1`
	return r.getOne(ctx, query, companyID, locationID)
}

func (r *CashDrawerRepo) getOne(ctx context.Context, query string, args ...any) (*entity.CashDrawerSession, error) {
	s, err := scanSession(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cash drawer session: %w", err)
	}
	return s, nil
}

// List historial del tenant ordenado por opened_at DESC.
func (r *CashDrawerRepo) List(ctx context.Context, companyID string, f repository.CashDrawerFilter) ([]*entity.CashDrawerSession, int, error) {
	conds := []string{"company_id = $1"}
	args := []any{companyID}
	if f.LocationID != nil {
		args = append(args, *f.LocationID)
		conds = append(conds, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("opened_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("opened_at <= $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cash_drawer_sessions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cash drawer sessions: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM cash_drawer_sessions WHERE %s
		ORDER BY opened_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, sessionColumns, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cash drawer sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.CashDrawerSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan cash drawer session: %w", err)
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// CreditCash incrementa cash_sales_total en una sola sentencia; dos cobros
// concurrentes nunca pierden una actualización. nil si la sesión no está abierta.
func (r *CashDrawerRepo) CreditCash(ctx context.Context, companyID, id string, amount decimal.Decimal) (*entity.CashDrawerSession, error) {
	query := `
		UPDATE cash_drawer_sessions
		SET cash_sales_total = cash_sales_total + $3
		WHERE id = $1 AND company_id = $2 AND status = 'open'
		RETURNING ` + sessionColumns
	return r.getOne(ctx, query, id, companyID, amount)
}

// Close persiste el arqueo. Solo afecta sesiones abiertas.
func (r *CashDrawerRepo) Close(ctx context.Context, s *entity.CashDrawerSession) error {
	query := `
		UPDATE cash_drawer_sessions SET
			status = $3, closed_by = $4, closing_amount = $5, expected_amount = $6,
			variance = $7, counted_checks = $8, counted_card = $9, closed_at = $10, notes = $11
		WHERE id = $1 AND company_id = $2 AND status = 'open'`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID,
		s.Status, s.ClosedBy, nullDecimal(s.ClosingAmount), nullDecimal(s.ExpectedAmount),
		nullDecimal(s.Variance), nullDecimal(s.CountedChecks), nullDecimal(s.CountedCard), s.ClosedAt, s.Notes,
	)
	if err != nil {
		return fmt.Errorf("close cash drawer session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict("la sesión de caja %s ya está cerrada", s.ID)
	}
	return nil
}

// AddMovement agrega un asiento al libro. Los asientos no se editan ni borran.
func (r *CashDrawerRepo) AddMovement(ctx context.Context, m *entity.CashDrawerMovement) error {
	query := `
		INSERT INTO cash_drawer_movements (id, session_id, company_id, invoice_id, amount, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, m.ID, m.SessionID, m.CompanyID, m.InvoiceID, m.Amount, m.CreatedBy, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cash drawer movement: %w", err)
	}
	return nil
}

// ListMovements devuelve el libro de la sesión en orden cronológico.
func (r *CashDrawerRepo) ListMovements(ctx context.Context, sessionID string) ([]*entity.CashDrawerMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, company_id, invoice_id, amount, created_by, created_at
		FROM cash_drawer_movements WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list cash drawer movements: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.CashDrawerMovement, 0)
	for rows.Next() {
		var m entity.CashDrawerMovement
		if err := rows.Scan(&m.ID, &m.SessionID, &m.CompanyID, &m.InvoiceID, &m.Amount, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cash drawer movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
