// Package invoicing contiene las reglas puras de facturación: cálculo de
// totales, validación de líneas, transiciones de estado y numeración.
package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/money"
)

// LineAmounts calcula descuento y subtotal de una línea.
//
//	descuento = round(cantidad × precio × pct / 100)
//	subtotal  = round(cantidad × precio − descuento)
func LineAmounts(quantity int, unitPrice, discountPercent decimal.Decimal) (discount, subtotal decimal.Decimal) {
	gross := decimal.NewFromInt(int64(quantity)).Mul(unitPrice)
	discount = money.Percent(gross, discountPercent)
	subtotal = money.Round(gross.Sub(discount))
	return discount, subtotal
}

// PriceItem rellena los campos derivados de la línea.
func PriceItem(item *entity.InvoiceItem) {
	item.UnitPrice = money.Round(item.UnitPrice)
	item.DiscountAmount, item.Subtotal = LineAmounts(item.Quantity, item.UnitPrice, item.DiscountPercent)
}

// RecomputeTotals recalcula subtotal, impuesto y total a partir de las líneas.
// Es idempotente: aplicarla dos veces deja los mismos valores.
func RecomputeTotals(inv *entity.Invoice, items []*entity.InvoiceItem) {
	subtotals := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		subtotals = append(subtotals, it.Subtotal)
	}
	inv.Subtotal = money.Sum(subtotals...)
	ApplyTaxAndTotal(inv)
}

// ApplyTaxAndTotal deriva impuesto (salvo override) y total desde el subtotal actual.
// El total nunca es negativo: un descuento mayor que subtotal+impuesto deja el total en 0.
func ApplyTaxAndTotal(inv *entity.Invoice) {
	if !inv.TaxOverride {
		inv.TaxAmount = money.Percent(inv.Subtotal, inv.TaxRate)
	}
	inv.TotalAmount = money.ClampZero(money.Round(inv.Subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)))
}
