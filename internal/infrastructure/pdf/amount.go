package pdf

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var amountPrinter = message.NewPrinter(language.Spanish)

// FormatAmount formatea un monto con separadores locales y dos decimales.
// Los montos ya vienen redondeados a centavos; la conversión es solo de presentación.
func FormatAmount(d decimal.Decimal) string {
	return "$" + amountPrinter.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
}
