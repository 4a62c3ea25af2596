package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/cart"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/checkout"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/metrics"
	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
)

const (
	port            = "8080"
	defaultCurrency = "INR"
	storeName       = "Karigar Mart"
	cookieMaxAge    = 60 * 60 * 48

	cookiePrefix    = "karigar_"
	cookieSessionID = cookiePrefix + "session-id"

	defaultFreeShippingAt = 999
)

var (
	baseUrl = ""
)

type ctxKeySessionID struct{}

type frontendServer struct {
	catalogSvcAddr string
	usersSvcAddr   string
	orderSvcAddr   string
	apiGatewayAddr string

	razorpayKeyID  string
	freeShippingAt money.Money

	httpClient *http.Client

	carts     *cart.Registry
	checkouts *checkout.Orchestrator
	tracker   *checkout.Tracker
	metrics   *metrics.Frontend
}

func main() {
	ctx := context.Background()
	log := logrus.New()
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	svc := new(frontendServer)
	svc.httpClient = &http.Client{Timeout: 10 * time.Second}

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

	baseUrl = os.Getenv("BASE_URL")

	if os.Getenv("ENABLE_TRACING") == "1" {
		log.Info("Tracing enabled.")
		initTracing(log, ctx)
	} else {
		log.Info("Tracing disabled.")
	}

	if os.Getenv("ENABLE_PROFILER") == "1" {
		log.Info("Profiling enabled.")
		go initProfiling(log, "frontend", "1.0.0")
	} else {
		log.Info("Profiling disabled.")
	}

	srvPort := port
	if os.Getenv("PORT") != "" {
		srvPort = os.Getenv("PORT")
	}
	addr := os.Getenv("LISTEN_ADDR")
	mustMapEnv(&svc.catalogSvcAddr, "CATALOG_SERVICE_ADDR")
	mustMapEnv(&svc.usersSvcAddr, "USERS_SERVICE_ADDR")
	mustMapEnv(&svc.orderSvcAddr, "ORDER_SERVICE_ADDR")
	mustMapEnv(&svc.razorpayKeyID, "RAZORPAY_KEY_ID")

	// If API_GATEWAY_ADDR is set, route all backend calls through the gateway
	if gw := os.Getenv("API_GATEWAY_ADDR"); gw != "" {
		svc.apiGatewayAddr = gw
		svc.catalogSvcAddr = gw
		svc.usersSvcAddr = gw
		svc.orderSvcAddr = gw
		log.Infof("Using API Gateway at %s for all backend calls", gw)
	}

	threshold := float64(defaultFreeShippingAt)
	if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("invalid FREE_SHIPPING_THRESHOLD %q: %v", v, err)
		}
		threshold = parsed
	}
	svc.freeShippingAt = money.FromFloat(defaultCurrency, threshold)

	svc.metrics = metrics.New()
	svc.carts = cart.NewRegistry(svc, log)
	svc.checkouts = checkout.New(svc, log)
	svc.tracker = checkout.NewTracker()

	r := mux.NewRouter()
	r.HandleFunc(baseUrl+"/", svc.homeHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/product/{id}", svc.productHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/cart", svc.viewCartHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/cart", svc.addToCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/update", svc.updateCartItemHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/remove", svc.removeFromCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/empty", svc.emptyCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout", svc.checkoutPageHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/checkout", svc.placeOrderHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/payment/callback", svc.paymentCallbackHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/payment/failed", svc.paymentFailedHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/payment/cancel", svc.paymentCancelHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/order/{id}", svc.orderHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/orders", svc.orderHistoryHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/artisans", svc.artisansHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/artisan/{id}", svc.artisanHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/stories", svc.storiesHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/story/{id}", svc.storyHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/login", svc.loginPageHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/login", svc.loginSubmitHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/register", svc.registerPageHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/register", svc.registerSubmitHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/profile", svc.profilePageHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/logout", svc.logoutHandler).Methods(http.MethodGet)
	r.PathPrefix(baseUrl + "/static/").Handler(http.StripPrefix(baseUrl+"/static/", http.FileServer(http.Dir("./static/"))))
	r.Handle(baseUrl+"/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/robots.txt", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "User-agent: *\nDisallow: /") })
	r.HandleFunc(baseUrl+"/_healthz", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "ok") })

	var handler http.Handler = r
	handler = &logHandler{log: log, metrics: svc.metrics, next: handler} // add logging
	handler = ensureSessionID(handler)                                   // add session ID
	handler = otelhttp.NewHandler(handler, "frontend")                   // add OTel tracing

	log.Infof("starting server on %s:%s", addr, srvPort)
	log.Fatal(http.ListenAndServe(addr+":"+srvPort, handler))
}

func initTracing(log logrus.FieldLogger, ctx context.Context) (*sdktrace.TracerProvider, error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	log.Info("Tracing provider initialized (no exporter configured)")
	return tp, nil
}

func initProfiling(log logrus.FieldLogger, service, version string) {
	for i := 1; i <= 3; i++ {
		log = log.WithField("retry", i)
		if err := profiler.Start(profiler.Config{
			Service:        service,
			ServiceVersion: version,
			// ProjectID must be set if not running on GCP.
			// ProjectID: "my-project",
		}); err != nil {
			log.Warnf("warn: failed to start profiler: %+v", err)
		} else {
			log.Info("started Stackdriver profiler")
			return
		}
		d := time.Second * 10 * time.Duration(i)
		log.Debugf("sleeping %v to retry initializing Stackdriver profiler", d)
		time.Sleep(d)
	}
	log.Warn("warning: could not initialize Stackdriver profiler after retrying, giving up")
}

func mustMapEnv(target *string, envKey string) {
	v := os.Getenv(envKey)
	if v == "" {
		panic(fmt.Sprintf("environment variable %q not set", envKey))
	}
	*target = v
}
