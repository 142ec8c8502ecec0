package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// PDFUseCase orquesta la generación del PDF imprimible de una factura.
type PDFUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	generator    InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso. customerRepo puede ser nil.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	generator InvoicePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		generator:    generator,
	}
}

// DownloadInvoicePDF carga factura, líneas y cliente y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe en el tenant.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, companyID, invoiceID string) (pdfBytes []byte, filename string, err error) {
	invoiceID, ok := parseID(invoiceID)
	if !ok {
		return nil, "", domain.NotFound("factura")
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.NotFound("factura")
	}
	items, err := uc.invoiceRepo.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener líneas: %w", err)
	}

	doc := snapshot(inv, items)
	if uc.customerRepo != nil && inv.CustomerID != nil {
		customer, cErr := uc.customerRepo.GetByID(ctx, companyID, *inv.CustomerID)
		if cErr != nil {
			return nil, "", fmt.Errorf("pdf: obtener cliente: %w", cErr)
		}
		doc.Customer = customer
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, inv.InvoiceNumber + ".pdf", nil
}
