// Package razorpay models the client-side contract of the Razorpay
// checkout widget: the order handed to it, the options it is constructed
// with, and the payloads it reports back. Signature validation itself is
// server-side; this package only carries the fields across.
package razorpay

// Order is a provider order as allocated by the backend's create-order
// endpoints. Amount is in minor currency units (paise for INR) and is
// computed server-side from the authoritative cart state; any client-side
// subtotal is advisory only.
type Order struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ProductName string `json:"productName,omitempty"`
}

// Payment is the payload the widget's success handler reports. Field names
// follow the provider's callback contract.
type Payment struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Complete reports whether all three callback fields are present. A partial
// payload cannot be verified and is treated as a failed payment.
func (p Payment) Complete() bool {
	return p.OrderID != "" && p.PaymentID != "" && p.Signature != ""
}

// FailureEvent carries the widget's payment.failed event.
type FailureEvent struct {
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
}

// Prefill seeds the widget's contact form.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Theme styles the widget.
type Theme struct {
	Color string `json:"color,omitempty"`
}

// Options is the constructor argument for the widget, serialized into the
// payment page.
type Options struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// NewOptions builds widget options for a provider order. key is the public
// key id; the secret never reaches this service.
func NewOptions(key, storeName string, order Order, prefill Prefill) Options {
	return Options{
		Key:         key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        storeName,
		Description: order.ProductName,
		OrderID:     order.ID,
		Prefill:     prefill,
		Theme:       Theme{Color: "#B45309"},
	}
}
