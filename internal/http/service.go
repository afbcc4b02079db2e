package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/novasalud/inventory/internal/apperr"
	"github.com/novasalud/inventory/internal/config"
	"github.com/novasalud/inventory/internal/http/apierr"
	"github.com/novasalud/inventory/internal/http/metric"
	"github.com/novasalud/inventory/internal/http/middleware"
	"github.com/novasalud/inventory/internal/http/swagger"
	"github.com/novasalud/inventory/internal/service"
	"github.com/novasalud/inventory/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg      config.HTTP
	logger   *slog.Logger
	metrics  *metric.Metrics
	validate validator.Validator

	productSvc  service.ProductService
	cartSvc     service.CartService
	checkoutSvc service.CheckoutService
	alertSvc    service.AlertService
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	validate validator.Validator,
	productSvc service.ProductService,
	cartSvc service.CartService,
	checkoutSvc service.CheckoutService,
	alertSvc service.AlertService,
) *Service {
	return &Service{
		cfg:         cfg,
		logger:      log.With(slog.String("service", "http")),
		metrics:     metric.New(),
		validate:    validate,
		productSvc:  productSvc,
		cartSvc:     cartSvc,
		checkoutSvc: checkoutSvc,
		alertSvc:    alertSvc,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	s.RegisterHandlers(r)

	return s.RunWithServer(ctx, r)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(),
		middleware.Logging(s.logger),
		middleware.Session(),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	productHandler := newProductHandler(s, s.productSvc)
	cartHandler := newCartHandler(s, s.cartSvc)
	checkoutHandler := newCheckoutHandler(s, s.checkoutSvc)
	alertHandler := newAlertHandler(s, s.alertSvc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Post("/", productHandler.CreateProduct)
			r.Get("/{productID}", productHandler.GetProduct)
			r.Get("/{productID}/stock", productHandler.GetStock)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.Checkout)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertHandler.ListOpenAlerts)
			r.Post("/{alertID}/resolve", alertHandler.ResolveAlert)
		})
	})

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}

func (s *Service) respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding response",
			slog.Any("error", err))
	}
}

func (s *Service) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondJSONError(w, r, apierr.New(err), err)
}

// respondJSONError writes a pre-built error response; handlers use it when
// they enrich the response with details beyond the plain error mapping.
func (s *Service) respondJSONError(w http.ResponseWriter, r *http.Request, res apierr.ErrorResponse, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}

// decodeBody decodes a JSON request body and runs struct validation on it.
func (s *Service) decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.ValidationErr.WrapParent(fmt.Errorf("decode body: %w", err))
	}
	if err := s.validate.Validate(dst); err != nil {
		return err
	}
	return nil
}
