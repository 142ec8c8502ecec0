// Package money concentra la aritmética monetaria: decimal exacto y
// redondeo a 2 decimales half-away-from-zero (comportamiento de decimal.Round).
package money

import "github.com/shopspring/decimal"

// Scale número de decimales de todo monto persistido.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Max límite excluyente de un monto: las columnas son NUMERIC(14,2).
var Max = decimal.New(1, 12)

// InRange indica si |d| cabe en una columna NUMERIC(14,2).
func InRange(d decimal.Decimal) bool {
	return Round(d).Abs().LessThan(Max)
}

// Round redondea a Scale decimales.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Percent devuelve base * pct / 100 redondeado.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(pct).Div(hundred))
}

// ClampZero devuelve 0 si d es negativo.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ValidPercent indica si p está en [0, 100].
func ValidPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// Sum suma los valores y redondea el resultado.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round(total)
}

// Equal compara dos montos tras redondear ambos.
func Equal(a, b decimal.Decimal) bool {
	return Round(a).Equal(Round(b))
}
