// Package pricing holds the money math for the cart and checkout flows.
// Backend prices arrive as currency-formatted strings ("Rs. 1,299.00"), so
// everything funnels through ParsePrice before arithmetic. All computation
// uses decimals; floats appear only at the order-payload boundary.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/giftbloom/storefront/internal/models"
)

// ParsePrice extracts the numeric value from a currency-formatted string by
// stripping every rune that is not a digit or a decimal point.
func ParsePrice(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	// abbreviations like "Rs." leave a stray leading dot behind
	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no numeric value in price %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}

// LineTotal is unit price times quantity for one resolved cart item.
func LineTotal(item models.ResolvedItem) (decimal.Decimal, error) {
	unit, err := ParsePrice(item.Price)
	if err != nil {
		return decimal.Zero, err
	}
	return unit.Mul(decimal.NewFromInt(int64(item.Quantity))), nil
}

// Subtotal sums line totals across the resolved cart. Items whose price
// cannot be parsed contribute nothing, mirroring the drop-on-failure policy
// of cart resolution.
func Subtotal(items []models.ResolvedItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line, err := LineTotal(item)
		if err != nil {
			continue
		}
		total = total.Add(line)
	}
	return total
}

// ApplyDiscount returns subtotal scaled by (1 - pct/100).
func ApplyDiscount(subtotal decimal.Decimal, pct float64) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)))
	return subtotal.Mul(factor)
}

// FormatAmount renders an amount with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
