// Package validator validates form payloads before any backend call is
// made. Validation failures are rendered inline; they never produce a
// network round-trip.
package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AddToCartPayload is the add-to-cart form.
type AddToCartPayload struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"required,gte=1,lte=10"`
}

func (p *AddToCartPayload) Validate() error {
	return validate.Struct(p)
}

// UpdateCartPayload is the quantity-change form on the cart page.
type UpdateCartPayload struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"required,gte=1,lte=10"`
}

func (p *UpdateCartPayload) Validate() error {
	return validate.Struct(p)
}

// ShippingPayload is the checkout address form. Every field is required.
type ShippingPayload struct {
	Street      string `validate:"required"`
	City        string `validate:"required"`
	State       string `validate:"required"`
	PostalCode  string `validate:"required,numeric,len=6"`
	PhoneNumber string `validate:"required,numeric,min=10,max=13"`
	Country     string `validate:"required"`
}

func (p *ShippingPayload) Validate() error {
	return validate.Struct(p)
}

// ValidationErrorResponse flattens validator field errors into a single
// error suitable for display.
func ValidationErrorResponse(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field %s is invalid (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
