package billing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

const defaultNotifyTimeout = 30 * time.Second

// AsyncNotifier despacha notificaciones en segundo plano tras el commit.
// Un fallo se registra en el log y nunca afecta la operación que lo originó.
// Un *AsyncNotifier nil descarta todos los avisos.
type AsyncNotifier struct {
	notifier  Notifier
	customers repository.CustomerRepository
	log       zerolog.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewAsyncNotifier construye el despachador. customers puede ser nil.
func NewAsyncNotifier(n Notifier, customers repository.CustomerRepository, log zerolog.Logger) *AsyncNotifier {
	return &AsyncNotifier{
		notifier:  n,
		customers: customers,
		log:       log.With().Str("component", "notifier").Logger(),
		timeout:   defaultNotifyTimeout,
	}
}

// InvoiceIssued avisa la emisión de una factura.
func (a *AsyncNotifier) InvoiceIssued(doc InvoiceDocument) {
	a.dispatch("invoice_issued", doc, func(ctx context.Context, d InvoiceDocument) error {
		return a.notifier.InvoiceIssued(ctx, d)
	})
}

// PaymentReceived avisa el pago de una factura.
func (a *AsyncNotifier) PaymentReceived(doc InvoiceDocument) {
	a.dispatch("payment_received", doc, func(ctx context.Context, d InvoiceDocument) error {
		return a.notifier.PaymentReceived(ctx, d)
	})
}

// Wait bloquea hasta que terminen los envíos en curso (apagado ordenado).
func (a *AsyncNotifier) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}

func (a *AsyncNotifier) dispatch(kind string, doc InvoiceDocument, send func(context.Context, InvoiceDocument) error) {
	if a == nil || a.notifier == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.Error().Interface("panic", r).Str("kind", kind).Msg("notificación abortada")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		doc.Customer = a.lookupCustomer(ctx, doc.Invoice)
		if err := send(ctx, doc); err != nil {
			a.log.Warn().Err(err).
				Str("kind", kind).
				Str("invoice_id", doc.Invoice.ID).
				Str("invoice_number", doc.Invoice.InvoiceNumber).
				Msg("notificación fallida")
			return
		}
		a.log.Debug().Str("kind", kind).Str("invoice_id", doc.Invoice.ID).Msg("notificación enviada")
	}()
}

func (a *AsyncNotifier) lookupCustomer(ctx context.Context, inv entity.Invoice) *entity.Customer {
	if a.customers == nil || inv.CustomerID == nil {
		return nil
	}
	c, err := a.customers.GetByID(ctx, inv.CompanyID, *inv.CustomerID)
	if err != nil {
		a.log.Warn().Err(err).Str("customer_id", *inv.CustomerID).Msg("no se pudo obtener el cliente")
		return nil
	}
	return c
}
