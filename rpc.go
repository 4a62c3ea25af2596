package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/cart"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/checkout"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/razorpay"
)

// toLine converts a remote cart line into the cart package's domain shape.
func toLine(l apiCartLine) cart.Line {
	return cart.Line{Product: productRef(l.Product), Quantity: l.Quantity}
}

func toLines(ls []apiCartLine) []cart.Line {
	out := make([]cart.Line, len(ls))
	for i, l := range ls {
		out[i] = toLine(l)
	}
	return out
}

func productRef(p Product) cart.ProductRef {
	return cart.ProductRef{
		ID:            p.ID,
		Name:          p.Name,
		Price:         money.FromFloat(defaultCurrency, p.Price),
		StockQuantity: p.CountInStock,
		Image:         p.Image,
	}
}

// UpsertItem sends the desired absolute quantity for a product to the users
// API. The response is the authoritative cart after the change.
func (fe *frontendServer) UpsertItem(ctx context.Context, token, productID string, quantity int) ([]cart.Line, error) {
	url := fmt.Sprintf("http://%s/api/users/profile/cart", fe.usersSvcAddr)
	body, err := json.Marshal(map[string]interface{}{"productId": productID, "quantity": quantity})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cart: upsert failed: status %d: %s", resp.StatusCode, respBody)
	}
	var lines []apiCartLine
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		return nil, err
	}
	return toLines(lines), nil
}

// RemoveItem deletes a product's line from the remote cart.
func (fe *frontendServer) RemoveItem(ctx context.Context, token, productID string) ([]cart.Line, error) {
	url := fmt.Sprintf("http://%s/api/users/profile/cart/%s", fe.usersSvcAddr, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cart: remove failed: status %d: %s", resp.StatusCode, respBody)
	}
	var lines []apiCartLine
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		return nil, err
	}
	return toLines(lines), nil
}

// Empty deletes the whole remote cart.
func (fe *frontendServer) Empty(ctx context.Context, token string) ([]cart.Line, error) {
	url := fmt.Sprintf("http://%s/api/users/profile/cart", fe.usersSvcAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cart: empty failed: status %d: %s", resp.StatusCode, respBody)
	}
	var lines []apiCartLine
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		return nil, err
	}
	return toLines(lines), nil
}

// CreateCartOrder asks the order API to allocate a provider order for the
// buyer's whole cart. The amount is computed server-side.
func (fe *frontendServer) CreateCartOrder(ctx context.Context, token string) (razorpay.Order, error) {
	url := fmt.Sprintf("http://%s/api/orders/create-cart-order", fe.orderSvcAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return razorpay.Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return razorpay.Order{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return razorpay.Order{}, fmt.Errorf("orders: create cart order failed: status %d: %s", resp.StatusCode, respBody)
	}
	var order razorpay.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return razorpay.Order{}, err
	}
	return order, nil
}

// CreateOrder allocates a provider order for a single-product express
// purchase.
func (fe *frontendServer) CreateOrder(ctx context.Context, token, productID string, quantity int) (razorpay.Order, error) {
	url := fmt.Sprintf("http://%s/api/orders/create-order", fe.orderSvcAddr)
	body, err := json.Marshal(map[string]interface{}{"productId": productID, "qty": quantity})
	if err != nil {
		return razorpay.Order{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return razorpay.Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return razorpay.Order{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return razorpay.Order{}, fmt.Errorf("orders: create order failed: status %d: %s", resp.StatusCode, respBody)
	}
	var order razorpay.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return razorpay.Order{}, err
	}
	return order, nil
}

// VerifyPayment forwards the widget's callback payload plus the charged
// items and shipping address for server-side signature verification.
func (fe *frontendServer) VerifyPayment(ctx context.Context, token string, vr checkout.VerifyRequest) (checkout.VerifyResponse, error) {
	url := fmt.Sprintf("http://%s/api/orders/verify-payment", fe.orderSvcAddr)

	items := make([]apiOrderItem, len(vr.OrderItems))
	for i, l := range vr.OrderItems {
		items[i] = apiOrderItem{
			Product:  l.Product.ID,
			Name:     l.Product.Name,
			Image:    l.Product.Image,
			Price:    money.ToFloat(l.Product.Price),
			Quantity: l.Quantity,
		}
	}
	body, err := json.Marshal(struct {
		RazorpayOrderID   string             `json:"razorpay_order_id"`
		RazorpayPaymentID string             `json:"razorpay_payment_id"`
		RazorpaySignature string             `json:"razorpay_signature"`
		OrderItems        []apiOrderItem     `json:"orderItems"`
		ShippingAddress   apiShippingAddress `json:"shippingAddress"`
		TotalPrice        float64            `json:"totalPrice"`
	}{
		RazorpayOrderID:   vr.Payment.OrderID,
		RazorpayPaymentID: vr.Payment.PaymentID,
		RazorpaySignature: vr.Payment.Signature,
		OrderItems:        items,
		ShippingAddress: apiShippingAddress{
			Street:      vr.ShippingAddress.Street,
			City:        vr.ShippingAddress.City,
			State:       vr.ShippingAddress.State,
			PostalCode:  vr.ShippingAddress.PostalCode,
			PhoneNumber: vr.ShippingAddress.PhoneNumber,
			Country:     vr.ShippingAddress.Country,
		},
		TotalPrice: money.ToFloat(vr.TotalPrice),
	})
	if err != nil {
		return checkout.VerifyResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return checkout.VerifyResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return checkout.VerifyResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return checkout.VerifyResponse{}, fmt.Errorf("orders: verify payment failed: status %d: %s", resp.StatusCode, respBody)
	}
	var out checkout.VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return checkout.VerifyResponse{}, err
	}
	return out, nil
}

func (fe *frontendServer) getProducts(ctx context.Context) ([]Product, error) {
	url := fmt.Sprintf("http://%s/api/products", fe.catalogSvcAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog: status %d: %s", resp.StatusCode, respBody)
	}
	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, err
	}
	return products, nil
}

func (fe *frontendServer) getProduct(ctx context.Context, id string) (*Product, error) {
	url := fmt.Sprintf("http://%s/api/products/%s", fe.catalogSvcAddr, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog: status %d: %s", resp.StatusCode, respBody)
	}
	var product Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (fe *frontendServer) getArtisans(ctx context.Context) ([]Artisan, error) {
	url := fmt.Sprintf("http://%s/api/artisans", fe.catalogSvcAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog: artisans failed: status %d: %s", resp.StatusCode, respBody)
	}
	var artisans []Artisan
	if err := json.NewDecoder(resp.Body).Decode(&artisans); err != nil {
		return nil, err
	}
	return artisans, nil
}

func (fe *frontendServer) getArtisan(ctx context.Context, id string) (*Artisan, error) {
	url := fmt.Sprintf("http://%s/api/artisans/%s", fe.catalogSvcAddr, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog: artisan failed: status %d: %s", resp.StatusCode, respBody)
	}
	var artisan Artisan
	if err := json.NewDecoder(resp.Body).Decode(&artisan); err != nil {
		return nil, err
	}
	return &artisan, nil
}

func (fe *frontendServer) getStories(ctx context.Context) ([]Story, error) {
	url := fmt.Sprintf("http://%s/api/stories", fe.catalogSvcAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stories: status %d: %s", resp.StatusCode, respBody)
	}
	var stories []Story
	if err := json.NewDecoder(resp.Body).Decode(&stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (fe *frontendServer) getStory(ctx context.Context, id string) (*Story, error) {
	url := fmt.Sprintf("http://%s/api/stories/%s", fe.catalogSvcAddr, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stories: status %d: %s", resp.StatusCode, respBody)
	}
	var story Story
	if err := json.NewDecoder(resp.Body).Decode(&story); err != nil {
		return nil, err
	}
	return &story, nil
}

// getOrder reads a persisted order back for the confirmation page.
func (fe *frontendServer) getOrder(ctx context.Context, token, id string) (*OrderRecord, error) {
	url := fmt.Sprintf("http://%s/api/orders/%s", fe.orderSvcAddr, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("orders: get failed: status %d: %s", resp.StatusCode, respBody)
	}
	var order OrderRecord
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (fe *frontendServer) getOrderHistory(ctx context.Context, token string) ([]OrderRecord, error) {
	url := fmt.Sprintf("http://%s/api/orders/myorders", fe.orderSvcAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fe.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("orders: history failed: status %d: %s", resp.StatusCode, respBody)
	}
	var orders []OrderRecord
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, err
	}
	return orders, nil
}
