package main

// types.go defines the wire types of the Karigar Mart backend REST API,
// shaped the way the document store returns them. Decimal JSON prices are
// converted into money values at the client boundary in rpc.go.

import (
	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
)

// Product is a catalog product document.
type Product struct {
	ID           string  `json:"_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Image        string  `json:"image"`
	Price        float64 `json:"price"`
	CountInStock int     `json:"countInStock"`
	Category     string  `json:"category"`
	Artisan      *Ref    `json:"artisan,omitempty"`
}

// Ref is a populated document reference.
type Ref struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Artisan is an artisan profile with its storefront products.
type Artisan struct {
	ID       string    `json:"_id"`
	Name     string    `json:"name"`
	Bio      string    `json:"bio"`
	Craft    string    `json:"craft"`
	Region   string    `json:"region"`
	Image    string    `json:"image"`
	Products []Product `json:"products,omitempty"`
}

// Story is an editorial content document.
type Story struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Body      string `json:"body"`
	Image     string `json:"image"`
	Artisan   *Ref   `json:"artisan,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// apiCartLine is one line of the remote cart as the users API returns it.
type apiCartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// apiShippingAddress matches the order documents' address shape.
type apiShippingAddress struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	PhoneNumber string `json:"phoneNumber"`
	Country     string `json:"country"`
}

// apiOrderItem is one charged line inside an order document.
type apiOrderItem struct {
	Product  string  `json:"product"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderRecord is a persisted order read back for confirmation and history.
type OrderRecord struct {
	ID              string             `json:"_id"`
	OrderItems      []apiOrderItem     `json:"orderItems"`
	ShippingAddress apiShippingAddress `json:"shippingAddress"`
	TotalPrice      float64            `json:"totalPrice"`
	IsPaid          bool               `json:"isPaid"`
	PaidAt          string             `json:"paidAt"`
	CreatedAt       string             `json:"createdAt"`
}

// Total returns the order total as money for display.
func (o OrderRecord) Total() money.Money {
	return money.FromFloat(defaultCurrency, o.TotalPrice)
}

// UserProfile is the signed-in buyer's profile, cart included.
type UserProfile struct {
	ID    string        `json:"_id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Cart  []apiCartLine `json:"cart"`
}
