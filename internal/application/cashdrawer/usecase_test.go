package cashdrawer_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-api/internal/application/cashdrawer"
	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
	"github.com/jhoicas/repairshop-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type env struct {
	store     *memory.Store
	uc        *cashdrawer.UseCase
	companyID string
	userID    string
}

func newEnv() *env {
	store := memory.NewStore()
	return &env{
		store:     store,
		uc:        cashdrawer.NewUseCase(store, store.CashDrawers(), zerolog.Nop()),
		companyID: uuid.NewString(),
		userID:    uuid.NewString(),
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func fixed(d *decimal.Decimal) string {
	if d == nil {
		return "<nil>"
	}
	return d.StringFixed(2)
}

// sell simula un cobro en efectivo acreditado a la sesión.
func (e *env) sell(t *testing.T, sessionID, amount string) {
	t.Helper()
	err := e.store.RunBilling(context.Background(), func(_ repository.InvoiceRepository, drawerRepo repository.CashDrawerRepository) error {
		if _, err := drawerRepo.CreditCash(context.Background(), e.companyID, sessionID, *dec(amount)); err != nil {
			return err
		}
		return drawerRepo.AddMovement(context.Background(), &entity.CashDrawerMovement{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			CompanyID: e.companyID,
			InvoiceID: uuid.NewString(),
			Amount:    *dec(amount),
			CreatedBy: e.userID,
			CreatedAt: time.Now().UTC(),
		})
	})
	require.NoError(t, err)
}

func (e *env) open(t *testing.T, opening string, location *string) *dto.CashDrawerSessionResponse {
	t.Helper()
	s, err := e.uc.Open(context.Background(), e.companyID, e.userID, dto.OpenCashDrawerRequest{
		LocationID:    location,
		OpeningAmount: dec(opening),
	})
	require.NoError(t, err)
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// Apertura
// ──────────────────────────────────────────────────────────────────────────────

func TestOpen_UnaSesionAbiertaPorUbicacion(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	first := e.open(t, "100", nil)
	assert.Equal(t, entity.CashDrawerStatusOpen, first.Status)
	assert.Equal(t, "100.00", first.OpeningAmount.StringFixed(2))
	assert.Equal(t, "0.00", first.CashSalesTotal.StringFixed(2))

	_, err := e.uc.Open(ctx, e.companyID, e.userID, dto.OpenCashDrawerRequest{OpeningAmount: dec("50")})
	assert.ErrorIs(t, err, domain.ErrConflict, "segunda apertura en la misma ubicación")

	sucursal := uuid.NewString()
	other := e.open(t, "20", &sucursal)
	assert.NotEqual(t, first.ID, other.ID, "otra ubicación abre su propia caja")

	_, err = e.uc.Open(ctx, uuid.NewString(), e.userID, dto.OpenCashDrawerRequest{OpeningAmount: dec("10")})
	assert.NoError(t, err, "otro tenant no comparte la restricción")
}

// Los ids llegan en cualquier capitalización; se comparan en forma canónica.
func TestOpen_UbicacionEnMayusculasEsLaMisma(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	loc := uuid.NewString()

	first := e.open(t, "100", &loc)
	upper := strings.ToUpper(loc)
	_, err := e.uc.Open(ctx, e.companyID, e.userID, dto.OpenCashDrawerRequest{
		LocationID:    &upper,
		OpeningAmount: dec("50"),
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "misma ubicación escrita en mayúsculas")

	current, err := e.uc.GetCurrent(ctx, e.companyID, &upper)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, first.ID, current.ID)
	require.NotNil(t, current.LocationID)
	assert.Equal(t, loc, *current.LocationID, "se guarda la forma canónica")

	history, err := e.uc.History(ctx, e.companyID, dto.CashDrawerHistoryRequest{LocationID: &upper})
	require.NoError(t, err)
	assert.Equal(t, 1, history.Page.Total)

	closed, err := e.uc.Close(ctx, e.companyID, e.userID, strings.ToUpper(first.ID), dto.CloseCashDrawerRequest{
		ClosingAmount: dec("100"),
		LocationID:    &upper,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CashDrawerStatusClosed, closed.Status)

	got, err := e.uc.Get(ctx, e.companyID, strings.ToUpper(first.ID))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestOpen_Validacion(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.uc.Open(ctx, e.companyID, e.userID, dto.OpenCashDrawerRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "monto obligatorio")

	_, err = e.uc.Open(ctx, e.companyID, e.userID, dto.OpenCashDrawerRequest{OpeningAmount: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "monto negativo")

	_, err = e.uc.Open(ctx, e.companyID, e.userID, dto.OpenCashDrawerRequest{OpeningAmount: dec("1000000000000")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "monto fuera de numeric(14,2)")

	bad := "sucursal-1"
	_, err = e.uc.Open(ctx, e.companyID, e.userID, dto.OpenCashDrawerRequest{OpeningAmount: dec("1"), LocationID: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ubicación inválida")
}

func TestOpen_AperturasConcurrentes(t *testing.T) {
	e := newEnv()
	const n = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		opened    int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.uc.Open(context.Background(), e.companyID, e.userID, dto.OpenCashDrawerRequest{OpeningAmount: dec("100")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				opened++
			} else if assert.ErrorIs(t, err, domain.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opened)
	assert.Equal(t, n-1, conflicts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre y arqueo
// ──────────────────────────────────────────────────────────────────────────────

func TestClose_Arqueo(t *testing.T) {
	tests := []struct {
		name     string
		closing  string
		variance string
	}{
		{"caja cuadrada", "175", "0.00"},
		{"faltante", "170", "-5.00"},
		{"sobrante", "180.50", "5.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			session := e.open(t, "100", nil)
			e.sell(t, session.ID, "50")
			e.sell(t, session.ID, "25")

			closed, err := e.uc.Close(context.Background(), e.companyID, e.userID, session.ID, dto.CloseCashDrawerRequest{
				ClosingAmount: dec(tt.closing),
				CountedCard:   dec("30"),
				Notes:         "cierre de turno",
			})
			require.NoError(t, err)
			assert.Equal(t, entity.CashDrawerStatusClosed, closed.Status)
			assert.Equal(t, "175.00", fixed(closed.ExpectedAmount))
			assert.Equal(t, tt.variance, fixed(closed.Variance))
			assert.Equal(t, "30.00", fixed(closed.CountedCard))
			assert.Nil(t, closed.CountedChecks)
			require.NotNil(t, closed.ClosedBy)
			assert.Equal(t, e.userID, *closed.ClosedBy)
			assert.NotNil(t, closed.ClosedAt)
		})
	}
}

func TestClose_Errores(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	session := e.open(t, "0", nil)

	_, err := e.uc.Close(ctx, e.companyID, e.userID, session.ID, dto.CloseCashDrawerRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "monto contado obligatorio")

	_, err = e.uc.Close(ctx, e.companyID, e.userID, session.ID, dto.CloseCashDrawerRequest{ClosingAmount: dec("0"), CountedCard: dec("1000000000000")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "arqueo de tarjeta fuera de rango")

	other := uuid.NewString()
	_, err = e.uc.Close(ctx, e.companyID, e.userID, session.ID, dto.CloseCashDrawerRequest{ClosingAmount: dec("0"), LocationID: &other})
	assert.ErrorIs(t, err, domain.ErrNotFound, "la ubicación no coincide")

	_, err = e.uc.Close(ctx, uuid.NewString(), e.userID, session.ID, dto.CloseCashDrawerRequest{ClosingAmount: dec("0")})
	assert.ErrorIs(t, err, domain.ErrNotFound, "otro tenant")

	_, err = e.uc.Close(ctx, e.companyID, e.userID, session.ID, dto.CloseCashDrawerRequest{ClosingAmount: dec("0")})
	require.NoError(t, err)
	_, err = e.uc.Close(ctx, e.companyID, e.userID, session.ID, dto.CloseCashDrawerRequest{ClosingAmount: dec("0")})
	assert.ErrorIs(t, err, domain.ErrConflict, "ya cerrada")

	reopened := e.open(t, "10", nil)
	assert.NotEqual(t, session.ID, reopened.ID, "tras cerrar se puede abrir otra")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetCurrent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	current, err := e.uc.GetCurrent(ctx, e.companyID, nil)
	require.NoError(t, err)
	assert.Nil(t, current, "sin sesión abierta")

	session := e.open(t, "40", nil)
	current, err = e.uc.GetCurrent(ctx, e.companyID, nil)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, session.ID, current.ID)

	sucursal := uuid.NewString()
	current, err = e.uc.GetCurrent(ctx, e.companyID, &sucursal)
	require.NoError(t, err)
	assert.Nil(t, current, "la ubicación por defecto no cuenta para otra sucursal")
}

func TestGet_IncluyeMovimientos(t *testing.T) {
	e := newEnv()
	session := e.open(t, "0", nil)
	e.sell(t, session.ID, "12.30")
	e.sell(t, session.ID, "7.70")

	got, err := e.uc.Get(context.Background(), e.companyID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", got.CashSalesTotal.StringFixed(2))
	require.Len(t, got.Movements, 2)

	_, err = e.uc.Get(context.Background(), e.companyID, "no-es-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistory(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s := e.open(t, "10", nil)
		_, err := e.uc.Close(ctx, e.companyID, e.userID, s.ID, dto.CloseCashDrawerRequest{ClosingAmount: dec("10")})
		require.NoError(t, err)
	}
	sucursal := uuid.NewString()
	e.open(t, "5", &sucursal)

	all, err := e.uc.History(ctx, e.companyID, dto.CashDrawerHistoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Page.Total)
	for i := 1; i < len(all.Items); i++ {
		assert.False(t, all.Items[i].OpenedAt.After(all.Items[i-1].OpenedAt), "más recientes primero")
	}

	page, err := e.uc.History(ctx, e.companyID, dto.CashDrawerHistoryRequest{PageRequest: dto.PageRequest{Limit: 2, Offset: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 4, page.Page.Total)

	bySucursal, err := e.uc.History(ctx, e.companyID, dto.CashDrawerHistoryRequest{LocationID: &sucursal})
	require.NoError(t, err)
	assert.Equal(t, 1, bySucursal.Page.Total)

	future := time.Now().Add(time.Hour)
	empty, err := e.uc.History(ctx, e.companyID, dto.CashDrawerHistoryRequest{From: &future})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Page.Total)

	past := time.Now().Add(-time.Hour)
	_, err = e.uc.History(ctx, e.companyID, dto.CashDrawerHistoryRequest{From: &future, To: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
