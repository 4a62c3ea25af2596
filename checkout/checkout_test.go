package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/cart"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/razorpay"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func inr(units int64) money.Money {
	return money.Money{CurrencyCode: "INR", Units: units}
}

func line(id string, price int64, qty, stock int) cart.Line {
	return cart.Line{
		Product:  cart.ProductRef{ID: id, Price: inr(price), StockQuantity: stock},
		Quantity: qty,
	}
}

func address() ShippingAddress {
	return ShippingAddress{
		Street:      "12 Shilpgram Road",
		City:        "Udaipur",
		State:       "Rajasthan",
		PostalCode:  "313001",
		PhoneNumber: "9876543210",
		Country:     "India",
	}
}

type fakeOrders struct {
	order     razorpay.Order
	createErr error

	verify    VerifyResponse
	verifyErr error

	createCalls int
	verifyCalls int
	lastVerify  VerifyRequest
}

func (f *fakeOrders) CreateCartOrder(context.Context, string) (razorpay.Order, error) {
	f.createCalls++
	return f.order, f.createErr
}

func (f *fakeOrders) CreateOrder(_ context.Context, _, productID string, quantity int) (razorpay.Order, error) {
	f.createCalls++
	return f.order, f.createErr
}

func (f *fakeOrders) VerifyPayment(_ context.Context, _ string, req VerifyRequest) (VerifyResponse, error) {
	f.verifyCalls++
	f.lastVerify = req
	return f.verify, f.verifyErr
}

func payment() razorpay.Payment {
	return razorpay.Payment{OrderID: "order_123", PaymentID: "pay_456", Signature: "sig"}
}

func TestHappyPath(t *testing.T) {
	orders := &fakeOrders{
		order:  razorpay.Order{ID: "order_123", Amount: 100000, Currency: "INR"},
		verify: VerifyResponse{Success: true, OrderID: "65f1a"},
	}
	o := New(orders, testLogger())

	a, err := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 2, 5)})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if a.Status != StatusAwaitingPayment {
		t.Fatalf("expected AwaitingPayment, got %s", a.Status)
	}
	if a.Order.ID != "order_123" {
		t.Fatalf("unexpected provider order: %+v", a.Order)
	}

	if err := o.Complete(context.Background(), "token", a, payment()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != StatusVerified || a.OrderID != "65f1a" {
		t.Fatalf("unexpected final attempt: %+v", a)
	}
	if !a.Status.IsTerminal() {
		t.Fatal("Verified must be terminal")
	}
	if orders.lastVerify.TotalPrice.Units != 1000 {
		t.Fatalf("unexpected advisory total: %+v", orders.lastVerify.TotalPrice)
	}
}

func TestBeginRequiresSignIn(t *testing.T) {
	orders := &fakeOrders{}
	o := New(orders, testLogger())

	a, err := o.Begin(context.Background(), "", address(), []cart.Line{line("p1", 500, 2, 5)})
	if !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if a.Status != StatusDraft {
		t.Fatalf("expected Draft, got %s", a.Status)
	}
	if orders.createCalls != 0 {
		t.Fatal("no network call may be made before preconditions pass")
	}
}

func TestBeginRequiresCompleteAddress(t *testing.T) {
	orders := &fakeOrders{}
	o := New(orders, testLogger())

	addr := address()
	addr.PostalCode = "  "
	a, err := o.Begin(context.Background(), "token", addr, []cart.Line{line("p1", 500, 2, 5)})
	if !errors.Is(err, ErrIncompleteAddress) {
		t.Fatalf("expected ErrIncompleteAddress, got %v", err)
	}
	if orders.createCalls != 0 {
		t.Fatal("no network call may be made with an incomplete address")
	}
	if a.Address != addr {
		t.Fatal("entered address must be kept for retry")
	}
}

func TestBeginRejectsOversoldCart(t *testing.T) {
	orders := &fakeOrders{}
	o := New(orders, testLogger())

	_, err := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 3, 2)})
	if !errors.Is(err, ErrCartNotEligible) {
		t.Fatalf("expected ErrCartNotEligible, got %v", err)
	}
	if orders.createCalls != 0 {
		t.Fatal("no network call may be made for an oversold cart")
	}
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	o := New(&fakeOrders{}, testLogger())
	if _, err := o.Begin(context.Background(), "token", address(), nil); !errors.Is(err, ErrCartNotEligible) {
		t.Fatalf("expected ErrCartNotEligible, got %v", err)
	}
}

func TestCreateOrderFailureFailsAttempt(t *testing.T) {
	orders := &fakeOrders{createErr: errors.New("gateway timeout")}
	o := New(orders, testLogger())

	a, err := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 2, 5)})
	if err == nil {
		t.Fatal("expected error")
	}
	if a.Status != StatusFailed || a.Err == "" {
		t.Fatalf("expected failed attempt with message, got %+v", a)
	}
}

// Verification returning {success:false} must fail the attempt and leave no
// client-side order id behind.
func TestVerificationRejectedFailsAttempt(t *testing.T) {
	orders := &fakeOrders{
		order:  razorpay.Order{ID: "order_123", Amount: 100000, Currency: "INR"},
		verify: VerifyResponse{Success: false},
	}
	o := New(orders, testLogger())

	a, err := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 2, 5)})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	err = o.Complete(context.Background(), "token", a, payment())
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if a.Status != StatusFailed {
		t.Fatalf("expected Failed, got %s", a.Status)
	}
	if a.Err != "payment verification failed" {
		t.Fatalf("unexpected message: %q", a.Err)
	}
	if a.OrderID != "" {
		t.Fatal("no order id may be set on a failed attempt")
	}
}

func TestVerificationTransportErrorFailsAttempt(t *testing.T) {
	orders := &fakeOrders{
		order:     razorpay.Order{ID: "order_123", Amount: 100000, Currency: "INR"},
		verifyErr: errors.New("connection reset"),
	}
	o := New(orders, testLogger())

	a, _ := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 2, 5)})
	if err := o.Complete(context.Background(), "token", a, payment()); err == nil {
		t.Fatal("expected error")
	}
	if a.Status != StatusFailed {
		t.Fatalf("expected Failed, got %s", a.Status)
	}
}

// Dismissing the widget mid-flow fails the attempt without generating any
// order id client-side.
func TestDismissFailsAttempt(t *testing.T) {
	orders := &fakeOrders{order: razorpay.Order{ID: "order_123", Amount: 100000, Currency: "INR"}}
	o := New(orders, testLogger())

	a, _ := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 2, 5)})
	o.Dismiss(a)
	if a.Status != StatusFailed {
		t.Fatalf("expected Failed, got %s", a.Status)
	}
	if a.Err != ErrPaymentCancelled.Error() {
		t.Fatalf("unexpected message: %q", a.Err)
	}
	if a.OrderID != "" {
		t.Fatal("no order id may exist after dismissal")
	}
	if orders.verifyCalls != 0 {
		t.Fatal("dismissal must not reach verification")
	}
}

func TestProviderFailureEvent(t *testing.T) {
	o := New(&fakeOrders{order: razorpay.Order{ID: "order_123"}}, testLogger())
	a, _ := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 2, 5)})
	o.Fail(a, "card declined by issuer")
	if a.Status != StatusFailed || a.Err != "card declined by issuer" {
		t.Fatalf("unexpected attempt: %+v", a)
	}
}

func TestCompleteRequiresAwaitingPayment(t *testing.T) {
	o := New(&fakeOrders{}, testLogger())
	a := &Attempt{Status: StatusDraft}
	if err := o.Complete(context.Background(), "token", a, payment()); !errors.Is(err, ErrNotAwaitingPayment) {
		t.Fatalf("expected ErrNotAwaitingPayment, got %v", err)
	}
}

func TestIncompletePaymentPayloadFails(t *testing.T) {
	orders := &fakeOrders{order: razorpay.Order{ID: "order_123"}}
	o := New(orders, testLogger())
	a, _ := o.Begin(context.Background(), "token", address(), []cart.Line{line("p1", 500, 2, 5)})

	err := o.Complete(context.Background(), "token", a, razorpay.Payment{OrderID: "order_123"})
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if orders.verifyCalls != 0 {
		t.Fatal("incomplete payload must not reach verification")
	}
}

func TestExpressPurchase(t *testing.T) {
	orders := &fakeOrders{
		order:  razorpay.Order{ID: "order_9", Amount: 50000, Currency: "INR", ProductName: "Blue Pottery Vase"},
		verify: VerifyResponse{Success: true, OrderID: "65f2b"},
	}
	o := New(orders, testLogger())

	p := cart.ProductRef{ID: "p9", Name: "Blue Pottery Vase", Price: inr(500), StockQuantity: 3}
	a, err := o.BeginExpress(context.Background(), "token", address(), p, 1)
	if err != nil {
		t.Fatalf("begin express: %v", err)
	}
	if err := o.Complete(context.Background(), "token", a, payment()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != StatusVerified || a.OrderID != "65f2b" {
		t.Fatalf("unexpected attempt: %+v", a)
	}
}

func TestExpressPurchaseBeyondStockRejected(t *testing.T) {
	orders := &fakeOrders{}
	o := New(orders, testLogger())
	p := cart.ProductRef{ID: "p9", Price: inr(500), StockQuantity: 2}
	if _, err := o.BeginExpress(context.Background(), "token", address(), p, 3); !errors.Is(err, ErrCartNotEligible) {
		t.Fatalf("expected ErrCartNotEligible, got %v", err)
	}
	if orders.createCalls != 0 {
		t.Fatal("no network call may be made")
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	a := &Attempt{Status: StatusAwaitingPayment, Order: razorpay.Order{ID: "order_1"}}
	tr.Put("sess-1", a)

	if _, ok := tr.Take("sess-2", "order_1"); ok {
		t.Fatal("attempt must not be visible to another session")
	}
	got, ok := tr.Take("sess-1", "order_1")
	if !ok || got != a {
		t.Fatal("expected to take the stored attempt")
	}
	if _, ok := tr.Take("sess-1", "order_1"); ok {
		t.Fatal("attempt must be single-use")
	}
}
