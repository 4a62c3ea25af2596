package cart

import (
	"testing"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
)

func TestEligibleSubtotalNeverExceedsSubtotal(t *testing.T) {
	carts := [][]Line{
		{},
		{line("p1", 500, 2, 5)},
		{line("p1", 500, 3, 2)},
		{line("p1", 500, 2, 5), line("p2", 120, 4, 3)},
		{line("p1", 500, 5, 5), line("p2", 120, 1, 0)},
	}
	for _, c := range carts {
		total := Subtotal(c)
		eligible := EligibleSubtotal(c)
		if money.ToFloat(eligible) > money.ToFloat(total) {
			t.Fatalf("eligible %v exceeds total %v for %+v", eligible, total, c)
		}
		if len(OversoldLines(c)) == 0 && !money.AreEquals(total, eligible) {
			t.Fatalf("no oversold lines but %v != %v for %+v", total, eligible, c)
		}
	}
}

func TestOversoldLineBlocksCheckout(t *testing.T) {
	c := []Line{line("p1", 500, 2, 5), line("p2", 120, 4, 3)}
	if IsValidForCheckout(c) {
		t.Fatal("cart with an oversold line must not be valid")
	}
}

func TestEmptyCartBlocksCheckout(t *testing.T) {
	if IsValidForCheckout(nil) {
		t.Fatal("empty cart must not be valid")
	}
}

func TestQuantityEqualToStockIsValid(t *testing.T) {
	c := []Line{line("p1", 500, 5, 5)}
	if !IsValidForCheckout(c) {
		t.Fatal("quantity == stock must be valid")
	}
	if got := EligibleSubtotal(c); got.Units != 2500 {
		t.Fatalf("boundary line excluded from eligible subtotal: %+v", got)
	}
}

func TestZeroStockAlwaysInvalid(t *testing.T) {
	c := []Line{line("p1", 500, 1, 0)}
	if IsValidForCheckout(c) {
		t.Fatal("zero stock with positive quantity must be invalid")
	}
}

// Scenario: one line of 2 × ₹500 against a ₹999 free-shipping threshold.
func TestInStockCartMeetsShippingThreshold(t *testing.T) {
	c := []Line{line("p1", 500, 2, 5)}
	if !IsValidForCheckout(c) {
		t.Fatal("expected cart to be valid")
	}
	sub := Subtotal(c)
	if sub.Units != 1000 {
		t.Fatalf("unexpected subtotal: %+v", sub)
	}
	p := FreeShippingProgress(sub, inr(999))
	if p.Percent != 100 {
		t.Fatalf("unexpected percent: %d", p.Percent)
	}
	if !money.IsZero(p.Remaining) {
		t.Fatalf("unexpected remaining: %+v", p.Remaining)
	}
}

// Scenario: a single oversold line contributes nothing to the charge total.
func TestOversoldLineExcludedFromCharge(t *testing.T) {
	c := []Line{line("p1", 500, 3, 2)}
	if IsValidForCheckout(c) {
		t.Fatal("expected cart to be invalid")
	}
	if got := EligibleSubtotal(c); !money.IsZero(got) {
		t.Fatalf("expected zero eligible subtotal, got %+v", got)
	}
}

func TestFreeShippingProgressPartial(t *testing.T) {
	p := FreeShippingProgress(inr(500), inr(999))
	if p.Percent != 50 {
		t.Fatalf("unexpected percent: %d", p.Percent)
	}
	if p.Remaining.Units != 499 {
		t.Fatalf("unexpected remaining: %+v", p.Remaining)
	}
}
