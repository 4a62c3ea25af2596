package money

import "testing"

func mustINR(units int64, nanos int32) Money {
	return Money{CurrencyCode: "INR", Units: units, Nanos: nanos}
}

func TestSum(t *testing.T) {
	got, err := Sum(mustINR(500, 0), mustINR(499, 500000000))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if got.Units != 999 || got.Nanos != 500000000 {
		t.Fatalf("unexpected sum: %+v", got)
	}
}

func TestSumCarriesNanos(t *testing.T) {
	got, err := Sum(mustINR(1, 900000000), mustINR(0, 200000000))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if got.Units != 2 || got.Nanos != 100000000 {
		t.Fatalf("unexpected sum: %+v", got)
	}
}

func TestSumMismatchingCurrency(t *testing.T) {
	if _, err := Sum(mustINR(1, 0), Money{CurrencyCode: "USD", Units: 1}); err != ErrMismatchingCurrency {
		t.Fatalf("expected ErrMismatchingCurrency, got %v", err)
	}
}

func TestMultiplySlow(t *testing.T) {
	got := MultiplySlow(mustINR(500, 0), 2)
	if got.Units != 1000 || got.Nanos != 0 {
		t.Fatalf("unexpected product: %+v", got)
	}
}

func TestFromFloat(t *testing.T) {
	got := FromFloat("INR", 499.50)
	if got.Units != 499 || got.Nanos != 500000000 {
		t.Fatalf("unexpected value: %+v", got)
	}
	if !IsValid(got) {
		t.Fatalf("expected valid money: %+v", got)
	}
}

func TestFromFloatRoundsUpToWholeUnit(t *testing.T) {
	got := FromFloat("INR", 2.9999999999)
	if got.Units != 3 || got.Nanos != 0 {
		t.Fatalf("unexpected value: %+v", got)
	}
}
