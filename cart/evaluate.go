package cart

import (
	"math"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
)

// eligible reports whether the line can be fulfilled from current stock.
// The boundary is inclusive: quantity equal to stock is fine.
func eligible(l Line) bool {
	return l.Quantity <= l.Product.StockQuantity
}

func currencyOf(lines []Line) string {
	if len(lines) > 0 && lines[0].Product.Price.CurrencyCode != "" {
		return lines[0].Product.Price.CurrencyCode
	}
	return defaultCurrency
}

// Subtotal sums price × quantity over every line, with no regard for stock.
func Subtotal(lines []Line) money.Money {
	total := money.Money{CurrencyCode: currencyOf(lines)}
	for _, l := range lines {
		total = money.Must(money.Sum(total, money.MultiplySlow(l.Product.Price, uint32(l.Quantity))))
	}
	return total
}

// EligibleSubtotal sums price × quantity over only the lines whose quantity
// does not exceed stock. Oversold lines never count toward the charge
// amount, independent of whether IsValidForCheckout already blocked the
// checkout.
func EligibleSubtotal(lines []Line) money.Money {
	return Subtotal(EligibleLines(lines))
}

// EligibleLines returns the checkout-eligible subset of lines.
func EligibleLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if eligible(l) {
			out = append(out, l)
		}
	}
	return out
}

// IsValidForCheckout reports whether the cart may proceed to checkout:
// it must be non-empty and no line may request more units than are in
// stock. A single oversold line blocks the whole cart; checkout is
// all-or-nothing, not partial.
func IsValidForCheckout(lines []Line) bool {
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if !eligible(l) {
			return false
		}
	}
	return true
}

// OversoldLines returns the lines blocking checkout, for display.
func OversoldLines(lines []Line) []Line {
	var out []Line
	for _, l := range lines {
		if !eligible(l) {
			out = append(out, l)
		}
	}
	return out
}

// ShippingProgress describes how close the subtotal is to the free-shipping
// threshold.
type ShippingProgress struct {
	Percent   int
	Remaining money.Money
}

// FreeShippingProgress computes the progress-bar percentage
// (min(100, round(subtotal/threshold*100))) and the amount still missing
// for free shipping, floored at zero.
func FreeShippingProgress(subtotal, threshold money.Money) ShippingProgress {
	p := ShippingProgress{
		Remaining: money.Money{CurrencyCode: threshold.CurrencyCode},
	}
	t := money.ToFloat(threshold)
	if t <= 0 {
		p.Percent = 100
		return p
	}
	p.Percent = int(math.Round(money.ToFloat(subtotal) / t * 100))
	if p.Percent > 100 {
		p.Percent = 100
	}
	if rem := money.Must(money.Sum(threshold, money.Negate(subtotal))); money.IsPositive(rem) {
		p.Remaining = rem
	}
	return p
}
