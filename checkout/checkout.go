// Package checkout drives the handshake that turns a valid cart, or a
// single-product express purchase, into a paid order: create a provider
// order, collect the payment through the provider widget, then have the
// backend verify the payment signature.
package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/cart"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/razorpay"
)

// Status enumerates the states of one checkout attempt.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusOrderCreated    Status = "ORDER_CREATED"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusVerifying       Status = "VERIFYING"
	StatusVerified        Status = "VERIFIED"
	StatusFailed          Status = "FAILED"
)

// IsTerminal reports whether the attempt can make no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusFailed
}

func (s Status) String() string { return string(s) }

// ShippingAddress is the delivery address collected before checkout. All
// fields are required.
type ShippingAddress struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	PhoneNumber string `json:"phoneNumber"`
	Country     string `json:"country"`
}

// Complete reports whether every field is non-empty.
func (a ShippingAddress) Complete() bool {
	for _, f := range []string{a.Street, a.City, a.State, a.PostalCode, a.PhoneNumber, a.Country} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// VerifyRequest is forwarded to the backend's verify-payment endpoint along
// with the bearer token.
type VerifyRequest struct {
	Payment         razorpay.Payment
	OrderItems      []cart.Line
	ShippingAddress ShippingAddress
	TotalPrice      money.Money
}

// VerifyResponse is the backend's verdict on a payment.
type VerifyResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

// OrderService is the backend order API the orchestrator talks to.
type OrderService interface {
	CreateCartOrder(ctx context.Context, token string) (razorpay.Order, error)
	CreateOrder(ctx context.Context, token, productID string, quantity int) (razorpay.Order, error)
	VerifyPayment(ctx context.Context, token string, req VerifyRequest) (VerifyResponse, error)
}

// Preconditions checked before any network call is made.
var (
	ErrNotSignedIn       = errors.New("sign in to continue to checkout")
	ErrIncompleteAddress = errors.New("all shipping address fields are required")
	ErrCartNotEligible   = errors.New("cart is empty or requests more units than are in stock")
)

// Terminal failures of the payment handshake.
var (
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrPaymentCancelled   = errors.New("payment was cancelled")
	ErrNotAwaitingPayment = errors.New("attempt is not awaiting payment")
)

// stepTimeout bounds each network step so a hung call becomes a retryable
// failure instead of a stuck spinner.
const stepTimeout = 30 * time.Second

// Attempt is one pass through the checkout handshake. It is created in
// Draft, reaches AwaitingPayment when the provider order exists, and ends
// in Verified or Failed. A failed attempt keeps the entered shipping
// address so the buyer can retry without retyping it; the cart is never
// touched on failure.
type Attempt struct {
	Status  Status
	Order   razorpay.Order
	Items   []cart.Line
	Address ShippingAddress

	// Express marks a buy-now purchase; the cart is not cleared when an
	// express attempt succeeds.
	Express bool

	// OrderID is the persisted order's id, set once Verified.
	OrderID string
	// Err is the user-facing failure description, set once Failed.
	Err string
}

// Orchestrator sequences checkout attempts against the backend order API.
type Orchestrator struct {
	orders OrderService
	log    logrus.FieldLogger
}

// New returns an Orchestrator backed by orders.
func New(orders OrderService, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{orders: orders, log: log}
}

// Begin validates the cart and address and creates a provider order for the
// whole cart. On success the attempt is AwaitingPayment and carries the
// provider order for the widget. Precondition violations return the attempt
// still in Draft with no network call made.
func (o *Orchestrator) Begin(ctx context.Context, token string, addr ShippingAddress, lines []cart.Line) (*Attempt, error) {
	a := &Attempt{Status: StatusDraft, Address: addr}
	if err := o.checkPreconditions(token, addr, lines); err != nil {
		return a, err
	}
	a.Items = cart.EligibleLines(lines)

	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	order, err := o.orders.CreateCartOrder(ctx, token)
	if err != nil {
		o.failAttempt(a, "could not start payment, please try again")
		return a, errors.Wrap(err, "create cart order")
	}
	a.Status = StatusOrderCreated
	a.Order = order
	o.log.WithField("order", order.ID).WithField("amount", order.Amount).Info("provider order created")

	a.Status = StatusAwaitingPayment
	return a, nil
}

// BeginExpress is Begin for a buy-now purchase of a single product,
// bypassing the cart.
func (o *Orchestrator) BeginExpress(ctx context.Context, token string, addr ShippingAddress, product cart.ProductRef, quantity int) (*Attempt, error) {
	items := []cart.Line{{Product: product, Quantity: quantity}}
	if quantity < 1 {
		items = nil
	}
	a := &Attempt{Status: StatusDraft, Address: addr, Express: true}
	if err := o.checkPreconditions(token, addr, items); err != nil {
		return a, err
	}
	a.Items = items

	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	order, err := o.orders.CreateOrder(ctx, token, product.ID, quantity)
	if err != nil {
		o.failAttempt(a, "could not start payment, please try again")
		return a, errors.Wrap(err, "create order")
	}
	a.Status = StatusOrderCreated
	a.Order = order
	o.log.WithField("order", order.ID).WithField("product", product.ID).Info("provider order created")

	a.Status = StatusAwaitingPayment
	return a, nil
}

func (o *Orchestrator) checkPreconditions(token string, addr ShippingAddress, lines []cart.Line) error {
	if token == "" {
		return ErrNotSignedIn
	}
	if !addr.Complete() {
		return ErrIncompleteAddress
	}
	if !cart.IsValidForCheckout(lines) {
		return ErrCartNotEligible
	}
	return nil
}

// Complete forwards the widget's success payload to the backend for
// verification. Verified attempts carry the persisted order id; any
// transport error or non-success verdict fails the attempt.
func (o *Orchestrator) Complete(ctx context.Context, token string, a *Attempt, payment razorpay.Payment) error {
	if a.Status != StatusAwaitingPayment {
		return ErrNotAwaitingPayment
	}
	if !payment.Complete() {
		o.failAttempt(a, "payment verification failed")
		return ErrVerificationFailed
	}
	a.Status = StatusVerifying

	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	resp, err := o.orders.VerifyPayment(ctx, token, VerifyRequest{
		Payment:         payment,
		OrderItems:      a.Items,
		ShippingAddress: a.Address,
		TotalPrice:      cart.EligibleSubtotal(a.Items),
	})
	if err != nil {
		o.failAttempt(a, "payment verification failed")
		return errors.Wrap(err, "verify payment")
	}
	if !resp.Success {
		o.failAttempt(a, "payment verification failed")
		return ErrVerificationFailed
	}

	a.Status = StatusVerified
	a.OrderID = resp.OrderID
	o.log.WithField("order", resp.OrderID).Info("payment verified, order placed")
	return nil
}

// Fail records a provider-reported payment failure.
func (o *Orchestrator) Fail(a *Attempt, description string) {
	if description == "" {
		description = "payment failed"
	}
	o.failAttempt(a, description)
}

// Dismiss records the buyer closing the widget without paying.
func (o *Orchestrator) Dismiss(a *Attempt) {
	o.failAttempt(a, ErrPaymentCancelled.Error())
}

func (o *Orchestrator) failAttempt(a *Attempt, description string) {
	a.Status = StatusFailed
	a.Err = description
	o.log.WithField("order", a.Order.ID).WithField("reason", description).Warn("checkout attempt failed")
}
