// Package currency formats Guaraní amounts the way the storefront displays them.
package currency

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const Symbol = "Gs."

var (
	locale       = language.MustParse("es-PY")
	listMarkup   = decimal.RequireFromString("1.25")
	freeShipping = "Gratis"
)

// Format renders amount rounded to whole guaraníes with Spanish digit
// grouping, e.g. "Gs. 25.000".
func Format(amount decimal.Decimal) string {
	p := message.NewPrinter(locale)
	return p.Sprintf("%s %d", Symbol, amount.Round(0).IntPart())
}

// FormatShipping renders a zero fee as "Gratis".
func FormatShipping(fee decimal.Decimal) string {
	if fee.IsZero() {
		return freeShipping
	}
	return Format(fee)
}

// ListPrice is the crossed-out "before" price shown next to offers: 25% over
// the selling price, rounded to a whole amount.
func ListPrice(price decimal.Decimal) decimal.Decimal {
	return price.Mul(listMarkup).Round(0)
}

// Savings is the difference between ListPrice and price.
func Savings(price decimal.Decimal) decimal.Decimal {
	return ListPrice(price).Sub(price)
}
