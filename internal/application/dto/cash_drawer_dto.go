package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenCashDrawerRequest body para POST /api/cash-drawer/open.
type OpenCashDrawerRequest struct {
	LocationID    *string          `json:"location_id,omitempty"`
	OpeningAmount *decimal.Decimal `json:"opening_amount"`
}

// CloseCashDrawerRequest body para POST /api/cash-drawer/:id/close.
type CloseCashDrawerRequest struct {
	LocationID    *string          `json:"location_id,omitempty"`
	ClosingAmount *decimal.Decimal `json:"closing_amount"`
	CountedChecks *decimal.Decimal `json:"counted_checks,omitempty"`
	CountedCard   *decimal.Decimal `json:"counted_card,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// CashDrawerHistoryRequest filtros de GET /api/cash-drawer/history.
type CashDrawerHistoryRequest struct {
	PageRequest
	LocationID *string
	From       *time.Time
	To         *time.Time
}

// CashDrawerSessionResponse sesión de caja.
type CashDrawerSessionResponse struct {
	ID             string                       `json:"id"`
	CompanyID      string                       `json:"company_id"`
	LocationID     *string                      `json:"location_id"`
	Status         string                       `json:"status"`
	OpenedBy       string                       `json:"opened_by"`
	OpeningAmount  decimal.Decimal              `json:"opening_amount"`
	CashSalesTotal decimal.Decimal              `json:"cash_sales_total"`
	OpenedAt       time.Time                    `json:"opened_at"`
	ClosedBy       *string                      `json:"closed_by"`
	ClosingAmount  *decimal.Decimal             `json:"closing_amount"`
	ExpectedAmount *decimal.Decimal             `json:"expected_amount"`
	Variance       *decimal.Decimal             `json:"variance"`
	CountedChecks  *decimal.Decimal             `json:"counted_checks"`
	CountedCard    *decimal.Decimal             `json:"counted_card"`
	ClosedAt       *time.Time                   `json:"closed_at"`
	Notes          string                       `json:"notes"`
	Movements      []CashDrawerMovementResponse `json:"movements,omitempty"`
}

// CashDrawerMovementResponse asiento del libro de caja.
type CashDrawerMovementResponse struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// CashDrawerHistoryResponse página del historial.
type CashDrawerHistoryResponse struct {
	Items []CashDrawerSessionResponse `json:"items"`
	Page  PageResponse                `json:"page"`
}
