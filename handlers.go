package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/cart"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/checkout"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/razorpay"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/validator"
)

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{
		"renderMoney": renderMoney,
		"json":        jsonString,
		"price":       func(f float64) money.Money { return money.FromFloat(defaultCurrency, f) },
	}).ParseGlob("templates/*.html"))

func (fe *frontendServer) homeHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Info("home")
	products, err := fe.getProducts(r.Context())
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve products"), http.StatusInternalServerError)
		return
	}

	// Stories are editorial garnish on the home page; their failure is not.
	stories, err := fe.getStories(r.Context())
	if err != nil {
		log.WithField("error", err).Warn("failed to get stories")
	}
	if len(stories) > 3 {
		stories = stories[:3]
	}

	if err := templates.ExecuteTemplate(w, "home", fe.injectCommonTemplateData(r, map[string]interface{}{
		"products":  productViews(products),
		"stories":   stories,
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

type productView struct {
	Item  Product
	Price money.Money
}

func productViews(products []Product) []productView {
	ps := make([]productView, len(products))
	for i, p := range products {
		ps[i] = productView{p, money.FromFloat(defaultCurrency, p.Price)}
	}
	return ps
}

func (fe *frontendServer) productHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	id := mux.Vars(r)["id"]
	if id == "" {
		renderHTTPError(log, r, w, errors.New("product id not specified"), http.StatusBadRequest)
		return
	}
	log.WithField("id", id).Debug("serving product page")

	p, err := fe.getProduct(r.Context(), id)
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve product"), http.StatusInternalServerError)
		return
	}

	if err := templates.ExecuteTemplate(w, "product", fe.injectCommonTemplateData(r, map[string]interface{}{
		"product":   productView{*p, money.FromFloat(defaultCurrency, p.Price)},
		"in_stock":  p.CountInStock > 0,
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	quantity, _ := strconv.Atoi(r.FormValue("quantity"))
	payload := validator.AddToCartPayload{
		ProductID: r.FormValue("product_id"),
		Quantity:  quantity,
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, r, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", payload.ProductID).WithField("quantity", payload.Quantity).Debug("adding to cart")

	if !fe.isLoggedIn(r) {
		w.Header().Set("Location", baseUrl+"/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	fe.sessionCart(r).AddOrUpdate(r.Context(), payload.ProductID, payload.Quantity)
	w.Header().Set("Location", baseUrl+"/cart")
	w.WriteHeader(http.StatusFound)
}

func (fe *frontendServer) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	quantity, _ := strconv.Atoi(r.FormValue("quantity"))
	payload := validator.UpdateCartPayload{
		ProductID: r.FormValue("product_id"),
		Quantity:  quantity,
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, r, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", payload.ProductID).WithField("quantity", payload.Quantity).Debug("updating cart item quantity")

	fe.sessionCart(r).SetQuantity(r.Context(), payload.ProductID, payload.Quantity)
	w.Header().Set("Location", baseUrl+"/cart")
	w.WriteHeader(http.StatusFound)
}

func (fe *frontendServer) removeFromCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	productID := r.FormValue("product_id")
	if productID == "" {
		renderHTTPError(log, r, w, errors.New("product id not specified"), http.StatusBadRequest)
		return
	}
	log.WithField("product", productID).Debug("removing from cart")

	fe.sessionCart(r).Remove(r.Context(), productID)
	w.Header().Set("Location", baseUrl+"/cart")
	w.WriteHeader(http.StatusFound)
}

func (fe *frontendServer) emptyCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("emptying cart")

	fe.sessionCart(r).Clear(r.Context())
	w.Header().Set("Location", baseUrl+"/")
	w.WriteHeader(http.StatusFound)
}

type cartLineView struct {
	Line     cart.Line
	Total    money.Money
	Oversold bool
}

func (fe *frontendServer) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("view user cart")

	store := fe.sessionCart(r)
	fe.refreshCart(r, store)
	lines := store.Lines()

	items := make([]cartLineView, len(lines))
	for i, l := range lines {
		items[i] = cartLineView{
			Line:     l,
			Total:    money.MultiplySlow(l.Product.Price, uint32(l.Quantity)),
			Oversold: l.Quantity > l.Product.StockQuantity,
		}
	}

	subtotal := cart.Subtotal(lines)
	progress := cart.FreeShippingProgress(subtotal, fe.freeShippingAt)

	if err := templates.ExecuteTemplate(w, "cart", fe.injectCommonTemplateData(r, map[string]interface{}{
		"items":              items,
		"cart_size":          store.Size(),
		"subtotal":           subtotal,
		"eligible_subtotal":  cart.EligibleSubtotal(lines),
		"can_checkout":       cart.IsValidForCheckout(lines),
		"oversold":           cart.OversoldLines(lines),
		"shipping_percent":   progress.Percent,
		"shipping_remaining": progress.Remaining,
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) checkoutPageHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	if !fe.isLoggedIn(r) {
		w.Header().Set("Location", baseUrl+"/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	store := fe.sessionCart(r)
	fe.refreshCart(r, store)
	fe.renderCheckout(log, r, w, store.Lines(), checkout.ShippingAddress{}, "")
}

// renderCheckout shows the address form together with the order summary.
// It is also the retry surface: after any failed attempt the entered
// address and the failure message come back here, cart intact.
func (fe *frontendServer) renderCheckout(log logrus.FieldLogger, r *http.Request, w http.ResponseWriter, lines []cart.Line, addr checkout.ShippingAddress, errMsg string) {
	subtotal := cart.EligibleSubtotal(lines)
	if err := templates.ExecuteTemplate(w, "checkout", fe.injectCommonTemplateData(r, map[string]interface{}{
		"lines":          lines,
		"cart_size":      fe.sessionCart(r).Size(),
		"subtotal":       subtotal,
		"can_checkout":   cart.IsValidForCheckout(lines),
		"address":        addr,
		"checkout_error": errMsg,
		"express_id":     r.FormValue("product_id"),
		"express_qty":    r.FormValue("qty"),
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("placing order")

	if !fe.isLoggedIn(r) {
		w.Header().Set("Location", baseUrl+"/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	payload := validator.ShippingPayload{
		Street:      r.FormValue("street"),
		City:        r.FormValue("city"),
		State:       r.FormValue("state"),
		PostalCode:  r.FormValue("postal_code"),
		PhoneNumber: r.FormValue("phone_number"),
		Country:     r.FormValue("country"),
	}
	addr := checkout.ShippingAddress{
		Street:      payload.Street,
		City:        payload.City,
		State:       payload.State,
		PostalCode:  payload.PostalCode,
		PhoneNumber: payload.PhoneNumber,
		Country:     payload.Country,
	}

	store := fe.sessionCart(r)
	fe.refreshCart(r, store)
	lines := store.Lines()

	if err := payload.Validate(); err != nil {
		fe.renderCheckout(log, r, w, lines, addr, validator.ValidationErrorResponse(err).Error())
		return
	}

	token := fe.authToken(r)
	var (
		attempt *checkout.Attempt
		err     error
	)
	if expressID := r.FormValue("product_id"); expressID != "" {
		qty, _ := strconv.Atoi(r.FormValue("qty"))
		var p *Product
		p, err = fe.getProduct(r.Context(), expressID)
		if err != nil {
			renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve product"), http.StatusInternalServerError)
			return
		}
		attempt, err = fe.checkouts.BeginExpress(r.Context(), token, addr, productRef(*p), qty)
	} else {
		attempt, err = fe.checkouts.Begin(r.Context(), token, addr, lines)
	}
	if err != nil {
		fe.metrics.Checkouts.WithLabelValues(attempt.Status.String()).Inc()
		fe.renderCheckout(log, r, w, lines, addr, checkoutMessage(attempt, err))
		return
	}

	fe.tracker.Put(sessionID(r), attempt)
	opts := razorpay.NewOptions(fe.razorpayKeyID, storeName, attempt.Order, razorpay.Prefill{
		Contact: addr.PhoneNumber,
	})
	log.WithField("order", attempt.Order.ID).Info("awaiting payment")

	if err := templates.ExecuteTemplate(w, "payment", fe.injectCommonTemplateData(r, map[string]interface{}{
		"options":  opts,
		"order_id": attempt.Order.ID,
		"amount":   money.Money{CurrencyCode: attempt.Order.Currency, Units: attempt.Order.Amount / 100, Nanos: int32(attempt.Order.Amount%100) * 10000000},
	})); err != nil {
		log.Error(err)
	}
}

// checkoutMessage picks the user-facing string for a failed or blocked
// checkout attempt.
func checkoutMessage(a *checkout.Attempt, err error) string {
	if a != nil && a.Err != "" {
		return a.Err
	}
	switch errors.Cause(err) {
	case checkout.ErrNotSignedIn, checkout.ErrIncompleteAddress, checkout.ErrCartNotEligible:
		return err.Error()
	}
	return "could not start payment, please try again"
}

func (fe *frontendServer) paymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	payment := razorpay.Payment{
		OrderID:   r.FormValue("razorpay_order_id"),
		PaymentID: r.FormValue("razorpay_payment_id"),
		Signature: r.FormValue("razorpay_signature"),
	}
	attempt, ok := fe.tracker.Take(sessionID(r), payment.OrderID)
	if !ok {
		renderHTTPError(log, r, w, errors.New("unknown payment attempt"), http.StatusBadRequest)
		return
	}

	if err := fe.checkouts.Complete(r.Context(), fe.authToken(r), attempt, payment); err != nil {
		log.WithField("error", err).Warn("payment verification failed")
		fe.metrics.Checkouts.WithLabelValues(attempt.Status.String()).Inc()
		fe.renderCheckout(log, r, w, fe.sessionCart(r).Lines(), attempt.Address, attempt.Err)
		return
	}
	fe.metrics.Checkouts.WithLabelValues(attempt.Status.String()).Inc()

	// The paid cart is spent; an express purchase leaves it alone.
	if !attempt.Express {
		fe.sessionCart(r).Clear(r.Context())
	}

	log.WithField("order", attempt.OrderID).Info("order placed")
	w.Header().Set("Location", baseUrl+"/order/"+attempt.OrderID)
	w.WriteHeader(http.StatusFound)
}

func (fe *frontendServer) paymentFailedHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	orderID := r.FormValue("razorpay_order_id")
	description := r.FormValue("description")
	attempt, ok := fe.tracker.Take(sessionID(r), orderID)
	if !ok {
		renderHTTPError(log, r, w, errors.New("unknown payment attempt"), http.StatusBadRequest)
		return
	}

	fe.checkouts.Fail(attempt, description)
	fe.metrics.Checkouts.WithLabelValues(attempt.Status.String()).Inc()
	fe.renderCheckout(log, r, w, fe.sessionCart(r).Lines(), attempt.Address, attempt.Err)
}

func (fe *frontendServer) paymentCancelHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	orderID := r.FormValue("razorpay_order_id")
	attempt, ok := fe.tracker.Take(sessionID(r), orderID)
	if !ok {
		renderHTTPError(log, r, w, errors.New("unknown payment attempt"), http.StatusBadRequest)
		return
	}

	fe.checkouts.Dismiss(attempt)
	fe.metrics.Checkouts.WithLabelValues(attempt.Status.String()).Inc()
	fe.renderCheckout(log, r, w, fe.sessionCart(r).Lines(), attempt.Address, attempt.Err)
}

func (fe *frontendServer) orderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	if !fe.isLoggedIn(r) {
		w.Header().Set("Location", baseUrl+"/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	id := mux.Vars(r)["id"]
	order, err := fe.getOrder(r.Context(), fe.authToken(r), id)
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve order"), http.StatusInternalServerError)
		return
	}

	if err := templates.ExecuteTemplate(w, "order", fe.injectCommonTemplateData(r, map[string]interface{}{
		"order":     order,
		"total":     order.Total(),
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) orderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("view order history")

	if !fe.isLoggedIn(r) {
		w.Header().Set("Location", baseUrl+"/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	orders, err := fe.getOrderHistory(r.Context(), fe.authToken(r))
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve order history"), http.StatusInternalServerError)
		return
	}

	if err := templates.ExecuteTemplate(w, "order_history", fe.injectCommonTemplateData(r, map[string]interface{}{
		"orders":    orders,
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) artisansHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	artisans, err := fe.getArtisans(r.Context())
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve artisans"), http.StatusInternalServerError)
		return
	}
	if err := templates.ExecuteTemplate(w, "artisans", fe.injectCommonTemplateData(r, map[string]interface{}{
		"artisans":  artisans,
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) artisanHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	artisan, err := fe.getArtisan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve artisan"), http.StatusInternalServerError)
		return
	}
	if err := templates.ExecuteTemplate(w, "artisan", fe.injectCommonTemplateData(r, map[string]interface{}{
		"artisan":   artisan,
		"products":  productViews(artisan.Products),
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) storiesHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	stories, err := fe.getStories(r.Context())
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve stories"), http.StatusInternalServerError)
		return
	}
	if err := templates.ExecuteTemplate(w, "stories", fe.injectCommonTemplateData(r, map[string]interface{}{
		"stories":   stories,
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

func (fe *frontendServer) storyHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	story, err := fe.getStory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		renderHTTPError(log, r, w, errors.Wrap(err, "could not retrieve story"), http.StatusInternalServerError)
		return
	}
	if err := templates.ExecuteTemplate(w, "story", fe.injectCommonTemplateData(r, map[string]interface{}{
		"story":     story,
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

// --- Session and rendering helpers ---

// sessionCart returns the session's cart store. The token source is bound
// to the request's auth cookie so mutations silently no-op for anonymous
// visitors.
func (fe *frontendServer) sessionCart(r *http.Request) *cart.Store {
	token := fe.authToken(r)
	return fe.carts.ForSession(sessionID(r), func() string { return token })
}

// refreshCart hydrates the mirror with the persisted cart from the buyer's
// profile. Failure is tolerable: the mirror keeps its last-synchronized
// snapshot.
func (fe *frontendServer) refreshCart(r *http.Request, store *cart.Store) {
	token := fe.authToken(r)
	if token == "" {
		return
	}
	profile, err := fe.authGetProfile(r.Context(), token)
	if err != nil {
		log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
		log.WithField("error", err).Warn("failed to refresh cart from profile")
		return
	}
	store.Replace(toLines(profile.Cart))
}

func renderHTTPError(log logrus.FieldLogger, r *http.Request, w http.ResponseWriter, err error, code int) {
	log.WithField("error", err).Error("request error")
	errMsg := fmt.Sprintf("%+v", err)

	w.WriteHeader(code)

	if templateErr := templates.ExecuteTemplate(w, "error", map[string]interface{}{
		"error":       errMsg,
		"status_code": code,
		"status":      http.StatusText(code),
		"baseUrl":     baseUrl,
	}); templateErr != nil {
		log.Error(templateErr)
	}
}

func (fe *frontendServer) injectCommonTemplateData(r *http.Request, payload map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"session_id": sessionID(r),
		"request_id": r.Context().Value(ctxKeyRequestID{}),
		"baseUrl":    baseUrl,
		"logged_in":  fe.isLoggedIn(r),
		"username":   fe.authUsername(r),
	}
	for k, v := range payload {
		data[k] = v
	}
	return data
}

func sessionID(r *http.Request) string {
	v := r.Context().Value(ctxKeySessionID{})
	if v != nil {
		return v.(string)
	}
	return ""
}

func renderMoney(m money.Money) string {
	symbol := "₹"
	if m.CurrencyCode != "" && m.CurrencyCode != "INR" {
		symbol = m.CurrencyCode + " "
	}
	return fmt.Sprintf("%s%d.%02d", symbol, m.Units, m.Nanos/10000000)
}

func jsonString(v interface{}) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
