// Package pdf genera la factura / recibo imprimible del taller.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Taller                 │  N° Factura + Estado      │
//	│  FECHAS: emisión / vencimiento / pago                       │
//	│  CLIENTE: Nombre + documento + contacto                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | Tipo | P.Unit | Desc% | Subtot │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Impuesto / Descuento / TOTAL            │
//	│  PAGO: método + referencia (si está pagada)                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/repairshop-api/internal/application/billing"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorPaid    = &props.Color{Red: 20, Green: 120, Blue: 60}
)

var statusLabels = map[string]string{
	entity.InvoiceStatusDraft:     "BORRADOR",
	entity.InvoiceStatusIssued:    "EMITIDA",
	entity.InvoiceStatusPaid:      "PAGADA",
	entity.InvoiceStatusOverdue:   "VENCIDA",
	entity.InvoiceStatusCancelled: "ANULADA",
}

var methodLabels = map[string]string{
	entity.PaymentMethodCash:         "Efectivo",
	entity.PaymentMethodCard:         "Tarjeta",
	entity.PaymentMethodCheck:        "Cheque",
	entity.PaymentMethodBankTransfer: "Transferencia",
	entity.PaymentMethodOther:        "Otro",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	shopName string
}

// NewMarotoPDFGenerator construye el generador. shopName encabeza el documento.
func NewMarotoPDFGenerator(shopName string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{shopName: shopName}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(ctx context.Context, doc billing.InvoiceDocument) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inv := doc.Invoice

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+inv.InvoiceNumber, true).
		WithAuthor(g.shopName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.shopName, inv))
	m.AddRows(datesRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(doc.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(doc.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	if inv.IsPaid() {
		m.AddRows(line.NewRow(3))
		m.AddRows(paymentRow(inv))
	}
	if inv.Notes != "" {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Notas: "+inv.Notes, props.Text{Size: 8, Top: 3, Color: colorGray}),
		)))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(shopName string, inv entity.Invoice) core.Row {
	statusColor := colorPrimary
	if inv.IsPaid() {
		statusColor = colorPaid
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(shopName, "Taller"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(inv.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New(nonEmpty(statusLabels[inv.Status], strings.ToUpper(inv.Status)), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 13, Color: statusColor,
			}),
		),
	)
}

func datesRow(inv entity.Invoice) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Emisión: %s   |   Vencimiento: %s   |   Pago: %s",
			formatDate(inv.IssueDate), formatDate(inv.DueDate), formatDate(inv.PaidDate),
		), props.Text{Size: 8, Top: 1, Color: colorGray}),
	))
}

func customerRow(c *entity.Customer) core.Row {
	if c == nil {
		return row.New(10).Add(col.New(12).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New("Consumidor final", props.Text{Size: 9, Top: 5}),
		))
	}
	return row.New(14).Add(col.New(12).Add(
		text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		text.New(fmt.Sprintf("Doc: %s   |   Email: %s   |   Tel: %s",
			nonEmpty(c.TaxID, "—"),
			nonEmpty(c.Email, "—"),
			nonEmpty(c.Phone, "—"),
		), props.Text{Size: 8, Top: 10, Color: colorGray}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("Tipo", 1, align.Center),
		h("P. Unit.", 2, align.Right),
		h("Desc.%", 1, align.Center),
		h("Subtotal", 3, align.Right),
	)
}

func itemRows(items []entity.InvoiceItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(it.Description, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(it.Type, props.Text{Size: 7, Align: align.Center, Top: 1, Color: colorGray})),
			col.New(2).Add(text.New(FormatAmount(it.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(it.DiscountPercent.StringFixed(2), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(FormatAmount(it.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, row.New(7).Add(col.New(12).Add(
			text.New("Sin líneas registradas", props.Text{Size: 8, Top: 1, Color: colorGray, Align: align.Center}),
		)))
	}
	return rows
}

func totalsRow(inv entity.Invoice) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 19}

	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 0),
			label(fmt.Sprintf("Impuesto (%s%%):", inv.TaxRate.StringFixed(2)), 6),
			label("Descuento:", 12),
			text.New("TOTAL:", grand),
		),
		col.New(3).Add(
			value(FormatAmount(inv.Subtotal), 0),
			value(FormatAmount(inv.TaxAmount), 6),
			value("-"+FormatAmount(inv.DiscountAmount), 12),
			text.New(FormatAmount(inv.TotalAmount), grand),
		),
	)
}

func paymentRow(inv entity.Invoice) core.Row {
	detail := "Método: " + nonEmpty(methodLabels[inv.PaymentMethod], inv.PaymentMethod)
	if inv.PaymentReference != "" {
		detail += "   |   Referencia: " + inv.PaymentReference
	}
	return row.New(12).Add(col.New(12).Add(
		text.New("PAGO RECIBIDO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPaid, Top: 1}),
		text.New(detail, props.Text{Size: 8, Top: 6, Color: colorGray}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("02/01/2006")
}
