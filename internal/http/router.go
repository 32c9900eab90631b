package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Cart     CartService
	Orders   OrderService
	Payments PaymentService
	Webhooks WebhookService
	Catalog  CatalogService
	Accounts AccountService
	Leads    LeadService
	Tokens   TokenParser
	Health   HealthChecker
}

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SignatureHeader    string
}

func NewRouter(cfg RouterConfig, s Services) http.Handler {
	cartHandler := NewCartHandler(s.Cart, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(s.Orders, cfg.RequestTimeout)
	paymentHandler := NewPaymentHandler(s.Payments, s.Webhooks, cfg.SignatureHeader, cfg.RequestTimeout)
	productHandler := NewProductHandler(s.Catalog, cfg.RequestTimeout)
	accountHandler := NewAccountHandler(s.Accounts, cfg.RequestTimeout)
	leadHandler := NewLeadHandler(s.Leads, cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(Authenticate(s.Tokens))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if s.Health != nil {
			if err := s.Health.Ping(r.Context()); err != nil {
				slog.ErrorContext(r.Context(), "health check failed", "error", err)
				respondError(w, http.StatusServiceUnavailable, "service_unavailable", "database unreachable")
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", accountHandler.Register)
			r.Post("/login", accountHandler.Login)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{product_id}", productHandler.Get)
			r.With(RequireAdmin).Post("/", productHandler.Create)
			r.With(RequireAdmin).Put("/{product_id}", productHandler.Update)
			r.With(RequireAdmin).Delete("/{product_id}", productHandler.Delete)
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", productHandler.ListCollections)
			r.Get("/{slug}", productHandler.GetCollection)
			r.With(RequireAdmin).Post("/", productHandler.CreateCollection)
			r.With(RequireAdmin).Delete("/{collection_id}", productHandler.DeleteCollection)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Post("/contact", leadHandler.Contact)
			r.Post("/wholesale", leadHandler.Wholesale)
		})

		r.Post("/webhooks/payment", paymentHandler.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Route("/account", func(r chi.Router) {
				r.Get("/profile", accountHandler.GetProfile)
				r.Put("/profile", accountHandler.UpdateProfile)
				r.Get("/settings", accountHandler.GetSettings)
				r.Put("/settings", accountHandler.UpdateSettings)
				r.Get("/wishlist", accountHandler.GetWishlist)
				r.Post("/wishlist", accountHandler.AddToWishlist)
				r.Delete("/wishlist/{product_id}", accountHandler.RemoveFromWishlist)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordersHandler.CreateOrder)
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{order_id}", ordersHandler.GetOrder)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/initialize", paymentHandler.Initialize)
				r.Get("/verify/{reference}", paymentHandler.Verify)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/orders", ordersHandler.AdminListOrders)
			r.Put("/orders/{order_id}", ordersHandler.AdminUpdateOrder)
			r.Delete("/orders/{order_id}", ordersHandler.AdminDeleteOrder)
			r.Get("/leads", leadHandler.List)
		})
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
