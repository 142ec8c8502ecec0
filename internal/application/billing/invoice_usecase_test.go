package billing_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/invoicing"
)

var numberPattern = regexp.MustCompile(`^INV-\d{6}-[0-9A-F]{10}$`)

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_CalculaImpuestoYTotal(t *testing.T) {
	f := newFixture(t)

	inv, err := f.invoices.Create(context.Background(), f.companyID, dto.CreateInvoiceRequest{
		Subtotal: decPtr("100"),
		TaxRate:  decPtr("8.5"),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Regexp(t, numberPattern, inv.InvoiceNumber)
	assertMoney(t, "100.00", inv.Subtotal)
	assertMoney(t, "8.50", inv.TaxAmount)
	assertMoney(t, "108.50", inv.TotalAmount)
	assert.Empty(t, inv.Items)
}

func TestCreate_ImpuestoExplicitoSeRespeta(t *testing.T) {
	f := newFixture(t)

	inv, err := f.invoices.Create(context.Background(), f.companyID, dto.CreateInvoiceRequest{
		Subtotal:  decPtr("100"),
		TaxRate:   decPtr("10"),
		TaxAmount: decPtr("3"),
	})
	require.NoError(t, err)
	assertMoney(t, "3.00", inv.TaxAmount)
	assertMoney(t, "103.00", inv.TotalAmount)
}

func TestCreate_TotalNuncaNegativo(t *testing.T) {
	f := newFixture(t)

	inv, err := f.invoices.Create(context.Background(), f.companyID, dto.CreateInvoiceRequest{
		Subtotal:       decPtr("100"),
		DiscountAmount: decPtr("150"),
	})
	require.NoError(t, err)
	assertMoney(t, "0.00", inv.TotalAmount)
}

func TestCreate_ValidacionAcumulaCampos(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoices.Create(context.Background(), f.companyID, dto.CreateInvoiceRequest{
		CustomerID: strPtr("no-es-uuid"),
		Subtotal:   decPtr("-1"),
		TaxRate:    decPtr("150"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"customer_id", "subtotal", "tax_rate"}, fields)
}

func TestCreate_ClienteDebeExistirEnElTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{CustomerID: strPtr(uuid.NewString())})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cliente inexistente")

	ajeno := entity.Customer{ID: uuid.NewString(), CompanyID: uuid.NewString(), Name: "Otro taller"}
	f.store.AddCustomer(ajeno)
	_, err = f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{CustomerID: &ajeno.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cliente de otro tenant")

	propio := entity.Customer{ID: uuid.NewString(), CompanyID: f.companyID, Name: "Ana"}
	f.store.AddCustomer(propio)
	inv, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{CustomerID: &propio.ID})
	require.NoError(t, err)
	require.NotNil(t, inv.CustomerID)
	assert.Equal(t, propio.ID, *inv.CustomerID)
}

func TestCreate_NumerosUnicosConcurrentes(t *testing.T) {
	f := newFixture(t)
	const n = 50

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, n)
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.invoices.Create(context.Background(), f.companyID, dto.CreateInvoiceRequest{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[inv.InvoiceNumber] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, n)
}

func TestCreate_ReintentaAnteColisionDeNumero(t *testing.T) {
	var (
		mu       sync.Mutex
		suffixes = []string{"AAAAAAAAAA", "AAAAAAAAAA", "BBBBBBBBBB"}
		calls    int
	)
	gen := invoicing.NewNumberGenerator("INV").WithEntropy(func() string {
		mu.Lock()
		defer mu.Unlock()
		s := suffixes[calls%len(suffixes)]
		calls++
		return s
	})
	f := newFixtureWithNumbers(t, gen)
	ctx := context.Background()

	first, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{})
	require.NoError(t, err)
	second, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{})
	require.NoError(t, err)

	assert.Contains(t, first.InvoiceNumber, "AAAAAAAAAA")
	assert.Contains(t, second.InvoiceNumber, "BBBBBBBBBB")
	assert.Equal(t, 3, calls, "la colisión consume un candidato extra")
}

func TestCreate_ContextoCanceladoNoInserta(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{})
	assert.ErrorIs(t, err, context.Canceled)

	list, err := f.invoices.List(context.Background(), f.companyID, dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Page.Total)
}

// ──────────────────────────────────────────────────────────────────────────────
// Get / List / Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_AisladoPorTenant(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "0")

	_, err := f.invoices.Get(context.Background(), uuid.NewString(), inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.invoices.Get(context.Background(), f.companyID, "no-es-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FiltrosYPaginacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cliente := entity.Customer{ID: uuid.NewString(), CompanyID: f.companyID, Name: "Luis"}
	f.store.AddCustomer(cliente)

	for i := 0; i < 3; i++ {
		f.createInvoice(t, "0")
	}
	conCliente, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{CustomerID: &cliente.ID})
	require.NoError(t, err)
	_, err = f.invoices.Update(ctx, f.companyID, conCliente.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusIssued)})
	require.NoError(t, err)

	page, err := f.invoices.List(ctx, f.companyID, dto.InvoiceListRequest{PageRequest: dto.PageRequest{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Page.Total)
	assert.Len(t, page.Items, 2)

	issued, err := f.invoices.List(ctx, f.companyID, dto.InvoiceListRequest{Status: entity.InvoiceStatusIssued})
	require.NoError(t, err)
	require.Len(t, issued.Items, 1)
	assert.Equal(t, conCliente.ID, issued.Items[0].ID)

	byCustomer, err := f.invoices.List(ctx, f.companyID, dto.InvoiceListRequest{CustomerID: cliente.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, byCustomer.Page.Total)

	_, err = f.invoices.List(ctx, f.companyID, dto.InvoiceListRequest{Status: "pendiente"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	otro, err := f.invoices.List(ctx, uuid.NewString(), dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, otro.Page.Total)
}

func TestDelete_OcultaLaFactura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "0")
	keep := f.createInvoice(t, "0")

	require.NoError(t, f.invoices.Delete(ctx, f.companyID, inv.ID))

	_, err := f.invoices.Get(ctx, f.companyID, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.invoices.List(ctx, f.companyID, dto.InvoiceListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, keep.ID, list.Items[0].ID)

	assert.ErrorIs(t, f.invoices.Delete(ctx, f.companyID, inv.ID), domain.ErrNotFound, "segundo borrado")
	_, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Notes: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound, "una factura borrada no se edita")
}

// ──────────────────────────────────────────────────────────────────────────────
// Update
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_OverrideDeImpuesto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{Subtotal: decPtr("100"), TaxRate: decPtr("10")})
	require.NoError(t, err)
	assertMoney(t, "10.00", inv.TaxAmount)

	inv, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{TaxAmount: decPtr("3")})
	require.NoError(t, err)
	assertMoney(t, "3.00", inv.TaxAmount)
	assertMoney(t, "103.00", inv.TotalAmount)

	inv, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Subtotal: decPtr("200")})
	require.NoError(t, err)
	assertMoney(t, "3.00", inv.TaxAmount, "el override sobrevive a cambios de subtotal")
	assertMoney(t, "203.00", inv.TotalAmount)

	inv, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{TaxRate: decPtr("5")})
	require.NoError(t, err)
	assertMoney(t, "10.00", inv.TaxAmount, "cambiar la tasa vuelve al cálculo automático")
	assertMoney(t, "210.00", inv.TotalAmount)
}

func TestUpdate_SinCambiosFinancierosNoAlteraTotales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "8.5")
	f.addItem(t, inv.ID, "100", "10", 1)
	before := f.get(t, inv.ID)

	after, err := f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Notes: strPtr("Cliente retira el lunes")})
	require.NoError(t, err)
	assert.Equal(t, "Cliente retira el lunes", after.Notes)
	assertMoney(t, before.Subtotal.String(), after.Subtotal)
	assertMoney(t, before.TaxAmount.String(), after.TaxAmount)
	assertMoney(t, before.TotalAmount.String(), after.TotalAmount)
}

func TestUpdate_SubtotalConLineasSeRechaza(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "0")
	f.addItem(t, inv.ID, "50", "0", 1)

	_, err := f.invoices.Update(context.Background(), f.companyID, inv.ID, dto.UpdateInvoiceRequest{Subtotal: decPtr("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assertMoney(t, "50.00", f.get(t, inv.ID).Subtotal)
}

func TestUpdate_TransicionesDeEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "0")

	_, err := f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusPaid)})
	assert.ErrorIs(t, err, domain.ErrConflict, "paid solo por pago")

	_, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusOverdue)})
	assert.ErrorIs(t, err, domain.ErrConflict, "draft no pasa a overdue")

	_, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr("archivada")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	issued, err := f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusIssued)})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusIssued, issued.Status)
	assert.NotNil(t, issued.IssueDate, "la emisión fija la fecha")

	overdue, err := f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusOverdue)})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusOverdue, overdue.Status)

	f.async.Wait()
	issuedCount, _ := f.notifier.counts()
	assert.Equal(t, 1, issuedCount, "solo draft→issued notifica la emisión")
}

func TestUpdate_FacturaAnuladaEsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "0")

	_, err := f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusCancelled)})
	require.NoError(t, err)

	_, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Notes: strPtr("reabrir")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusDraft)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdate_FacturaPagadaSoloAdmiteNotas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.invoices.Create(ctx, f.companyID, dto.CreateInvoiceRequest{Subtotal: decPtr("40")})
	require.NoError(t, err)
	_, err = f.payments.MarkAsPaid(ctx, f.companyID, inv.ID, dto.MarkPaidRequest{PaymentMethod: entity.PaymentMethodCheck})
	require.NoError(t, err)

	_, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{DiscountAmount: decPtr("5")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusCancelled)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := f.invoices.Update(ctx, f.companyID, inv.ID, dto.UpdateInvoiceRequest{Notes: strPtr("Pagado con cheque 0042")})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, updated.Status)
	assertMoney(t, "40.00", updated.TotalAmount)
}
