// Package cashdrawer administra las sesiones de caja: apertura, cierre con
// arqueo, consulta de la sesión vigente e historial.
package cashdrawer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/money"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// UseCase operaciones de caja por tenant y ubicación.
type UseCase struct {
	txRunner   TxRunner
	drawerRepo repository.CashDrawerRepository
	log        zerolog.Logger
	now        func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner TxRunner, drawerRepo repository.CashDrawerRepository, log zerolog.Logger) *UseCase {
	return &UseCase{
		txRunner:   txRunner,
		drawerRepo: drawerRepo,
		log:        log.With().Str("component", "cash_drawer").Logger(),
		now:        time.Now,
	}
}

// Open abre una sesión. Falla con conflicto si ya hay una abierta para el mismo
// tenant y ubicación; el índice único parcial del almacenamiento lo garantiza
// también ante aperturas concurrentes.
func (uc *UseCase) Open(ctx context.Context, companyID, userID string, in dto.OpenCashDrawerRequest) (*dto.CashDrawerSessionResponse, error) {
	verr := &domain.ValidationError{}
	if in.OpeningAmount == nil {
		verr.Add("opening_amount", "el monto de apertura es obligatorio")
	} else if in.OpeningAmount.IsNegative() {
		verr.Add("opening_amount", "el monto de apertura no puede ser negativo")
	} else if !money.InRange(*in.OpeningAmount) {
		verr.Add("opening_amount", "el monto de apertura excede el máximo permitido")
	}
	locationID, ok := parseOptionalID(in.LocationID)
	if !ok {
		verr.Add("location_id", "identificador inválido")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	session := &entity.CashDrawerSession{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		LocationID:     locationID,
		Status:         entity.CashDrawerStatusOpen,
		OpenedBy:       userID,
		OpeningAmount:  money.Round(*in.OpeningAmount),
		CashSalesTotal: decimal.Zero,
		OpenedAt:       uc.now().UTC(),
	}
	err := uc.txRunner.RunDrawer(ctx, func(drawerRepo repository.CashDrawerRepository) error {
		current, err := drawerRepo.GetOpen(ctx, companyID, locationID)
		if err != nil {
			return fmt.Errorf("consultar sesión abierta: %w", err)
		}
		if current != nil {
			return errAlreadyOpen
		}
		return drawerRepo.Create(ctx, session)
	})
	if errors.Is(err, domain.ErrDuplicate) {
		err = errAlreadyOpen
	}
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("session_id", session.ID).
		Str("opening_amount", session.OpeningAmount.StringFixed(money.Scale)).
		Msg("caja abierta")
	return toSessionResponse(session, nil), nil
}

var errAlreadyOpen = domain.Conflict("ya existe una sesión de caja abierta para esta ubicación")

// Close cierra la sesión y calcula el arqueo:
//
//	esperado = apertura + ventas en efectivo de la sesión
//	diferencia = contado − esperado (positivo sobrante, negativo faltante)
func (uc *UseCase) Close(ctx context.Context, companyID, userID, sessionID string, in dto.CloseCashDrawerRequest) (*dto.CashDrawerSessionResponse, error) {
	sessionID, ok := parseID(sessionID)
	if !ok {
		return nil, domain.NotFound("sesión de caja")
	}
	verr := &domain.ValidationError{}
	locationID, ok := parseOptionalID(in.LocationID)
	if !ok {
		verr.Add("location_id", "identificador inválido")
	}
	if in.ClosingAmount == nil {
		verr.Add("closing_amount", "el monto contado es obligatorio")
	} else if in.ClosingAmount.IsNegative() {
		verr.Add("closing_amount", "el monto contado no puede ser negativo")
	} else if !money.InRange(*in.ClosingAmount) {
		verr.Add("closing_amount", "el monto contado excede el máximo permitido")
	}
	checkCounted(verr, "counted_checks", in.CountedChecks)
	checkCounted(verr, "counted_card", in.CountedCard)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	var session *entity.CashDrawerSession
	err := uc.txRunner.RunDrawer(ctx, func(drawerRepo repository.CashDrawerRepository) error {
		var err error
		session, err = drawerRepo.GetForUpdate(ctx, companyID, sessionID)
		if err != nil {
			return fmt.Errorf("bloquear sesión de caja: %w", err)
		}
		if session == nil {
			return domain.NotFound("sesión de caja")
		}
		if locationID != nil && !session.SameLocation(locationID) {
			return domain.NotFound("sesión de caja")
		}
		if !session.IsOpen() {
			return domain.Conflict("la sesión de caja %s ya está cerrada", session.ID)
		}

		closing := money.Round(*in.ClosingAmount)
		expected := money.Round(session.OpeningAmount.Add(session.CashSalesTotal))
		variance := money.Round(closing.Sub(expected))
		now := uc.now().UTC()
		closedBy := userID

		session.Status = entity.CashDrawerStatusClosed
		session.ClosedBy = &closedBy
		session.ClosingAmount = &closing
		session.ExpectedAmount = &expected
		session.Variance = &variance
		session.CountedChecks = roundPtr(in.CountedChecks)
		session.CountedCard = roundPtr(in.CountedCard)
		session.ClosedAt = &now
		session.Notes = in.Notes
		return drawerRepo.Close(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("session_id", session.ID).
		Str("expected", session.ExpectedAmount.StringFixed(money.Scale)).
		Str("variance", session.Variance.StringFixed(money.Scale)).
		Msg("caja cerrada")
	return toSessionResponse(session, nil), nil
}

// GetCurrent devuelve la sesión abierta de la ubicación o nil si no hay ninguna.
func (uc *UseCase) GetCurrent(ctx context.Context, companyID string, locationID *string) (*dto.CashDrawerSessionResponse, error) {
	locationID, ok := parseOptionalID(locationID)
	if !ok {
		return nil, domain.Invalid("location_id", "identificador inválido")
	}
	session, err := uc.drawerRepo.GetOpen(ctx, companyID, locationID)
	if err != nil {
		return nil, fmt.Errorf("consultar sesión abierta: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	return toSessionResponse(session, nil), nil
}

// Get devuelve una sesión con su libro de movimientos.
func (uc *UseCase) Get(ctx context.Context, companyID, sessionID string) (*dto.CashDrawerSessionResponse, error) {
	sessionID, ok := parseID(sessionID)
	if !ok {
		return nil, domain.NotFound("sesión de caja")
	}
	session, err := uc.drawerRepo.GetByID(ctx, companyID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("obtener sesión de caja: %w", err)
	}
	if session == nil {
		return nil, domain.NotFound("sesión de caja")
	}
	movements, err := uc.drawerRepo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener movimientos: %w", err)
	}
	if movements == nil {
		movements = []*entity.CashDrawerMovement{}
	}
	return toSessionResponse(session, movements), nil
}

// History lista sesiones del tenant, más recientes primero.
func (uc *UseCase) History(ctx context.Context, companyID string, in dto.CashDrawerHistoryRequest) (*dto.CashDrawerHistoryResponse, error) {
	in.DefaultPage()
	locationID, ok := parseOptionalID(in.LocationID)
	if !ok {
		return nil, domain.Invalid("location_id", "identificador inválido")
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return nil, domain.Invalid("to", "el fin del rango es anterior al inicio")
	}
	list, total, err := uc.drawerRepo.List(ctx, companyID, repository.CashDrawerFilter{
		LocationID: locationID,
		From:       in.From,
		To:         in.To,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listar sesiones de caja: %w", err)
	}
	out := &dto.CashDrawerHistoryResponse{
		Items: make([]dto.CashDrawerSessionResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}
	for _, s := range list {
		out.Items = append(out.Items, *toSessionResponse(s, nil))
	}
	return out, nil
}

func roundPtr(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	r := money.Round(*v)
	return &r
}

// parseID valida un uuid y devuelve su forma canónica (minúsculas con guiones);
// los almacenes comparan ids como texto.
func parseID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func parseOptionalID(s *string) (*string, bool) {
	if s == nil {
		return nil, true
	}
	id, ok := parseID(*s)
	if !ok {
		return nil, false
	}
	return &id, true
}

func checkCounted(verr *domain.ValidationError, field string, v *decimal.Decimal) {
	switch {
	case v == nil:
	case v.IsNegative():
		verr.Add(field, "no puede ser negativo")
	case !money.InRange(*v):
		verr.Add(field, "excede el máximo permitido")
	}
}
