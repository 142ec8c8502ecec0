package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-api/internal/application/billing"
	"github.com/jhoicas/repairshop-api/internal/application/cashdrawer"
	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/invoicing"
	"github.com/jhoicas/repairshop-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type recordingNotifier struct {
	mu     sync.Mutex
	issued []billing.InvoiceDocument
	paid   []billing.InvoiceDocument
	err    error
}

func (n *recordingNotifier) InvoiceIssued(_ context.Context, doc billing.InvoiceDocument) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued = append(n.issued, doc)
	return n.err
}

func (n *recordingNotifier) PaymentReceived(_ context.Context, doc billing.InvoiceDocument) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, doc)
	return n.err
}

func (n *recordingNotifier) counts() (issued, paid int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.issued), len(n.paid)
}

type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	async     *billing.AsyncNotifier
	invoices  *billing.InvoiceUseCase
	items     *billing.ItemUseCase
	payments  *billing.PaymentUseCase
	drawer    *cashdrawer.UseCase
	companyID string
	userID    string
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithNumbers(t, invoicing.NewNumberGenerator(""))
}

func newFixtureWithNumbers(t *testing.T, numbers *invoicing.NumberGenerator) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &recordingNotifier{}
	async := billing.NewAsyncNotifier(rec, store.Customers(), zerolog.Nop())
	return &fixture{
		store:     store,
		notifier:  rec,
		async:     async,
		invoices:  billing.NewInvoiceUseCase(store, store.Invoices(), store.Customers(), numbers, async, zerolog.Nop()),
		items:     billing.NewItemUseCase(store, zerolog.Nop()),
		payments:  billing.NewPaymentUseCase(store, async, zerolog.Nop()),
		drawer:    cashdrawer.NewUseCase(store, store.CashDrawers(), zerolog.Nop()),
		companyID: uuid.NewString(),
		userID:    uuid.NewString(),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(2), got.StringFixed(2), msgAndArgs...)
}

// createInvoice crea un borrador con la tasa indicada.
func (f *fixture) createInvoice(t *testing.T, taxRate string) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.invoices.Create(context.Background(), f.companyID, dto.CreateInvoiceRequest{TaxRate: decPtr(taxRate)})
	require.NoError(t, err)
	return inv
}

func (f *fixture) addItem(t *testing.T, invoiceID, price, pct string, qty int) *dto.InvoiceItemResponse {
	t.Helper()
	item, err := f.items.AddItem(context.Background(), f.companyID, invoiceID, dto.CreateInvoiceItemRequest{
		Description:     "Reparación",
		Quantity:        qty,
		UnitPrice:       dec(price),
		DiscountPercent: decPtr(pct),
		Type:            entity.ItemTypeService,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) openDrawer(t *testing.T, opening string) *dto.CashDrawerSessionResponse {
	t.Helper()
	s, err := f.drawer.Open(context.Background(), f.companyID, f.userID, dto.OpenCashDrawerRequest{OpeningAmount: decPtr(opening)})
	require.NoError(t, err)
	return s
}

func (f *fixture) get(t *testing.T, id string) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.invoices.Get(context.Background(), f.companyID, id)
	require.NoError(t, err)
	return inv
}
