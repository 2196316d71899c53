package invoice

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals are derived on every read and never stored.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal is amount * quantity. Non-positive quantities contribute nothing.
func LineTotal(it Item) decimal.Decimal {
	if it.Quantity <= 0 {
		return decimal.Zero
	}

	return it.Amount.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Subtotal sums the line totals, rounded to cents.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}

	return sum.Round(2)
}

// Tax is subtotal * rate / 100 rounded to cents. A null rate is zero.
func Tax(subtotal decimal.Decimal, rate decimal.NullDecimal) decimal.Decimal {
	if !rate.Valid {
		return decimal.Zero
	}

	return subtotal.Mul(rate.Decimal).Div(hundred).Round(2)
}

func Total(subtotal, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax)
}

func Compute(inv Invoice) Totals {
	subtotal := Subtotal(inv.Items)
	tax := Tax(subtotal, inv.TaxRate)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    Total(subtotal, tax),
	}
}
