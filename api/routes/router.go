package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cafepos/api/controllers"
	"github.com/angelmondragon/cafepos/api/middleware"
	"github.com/angelmondragon/cafepos/internal/auth"
	"github.com/angelmondragon/cafepos/internal/payments"
	"github.com/angelmondragon/cafepos/internal/products"
	"github.com/angelmondragon/cafepos/internal/sales"
	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/metrics"
	"github.com/angelmondragon/cafepos/pkg/redis"
)

// Services bundles the domain services the API exposes.
type Services struct {
	Auth     auth.Service
	Sales    sales.Service
	Payments payments.Service
	Products products.Service
}

// Infra carries shared clients. Redis may be nil in sqlite dev mode, which disables
// idempotency replay and login throttling.
type Infra struct {
	DB          controllers.Pinger
	Redis       *redis.Client
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(infra.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		rateStore        middleware.WindowCounter
		redisPinger      controllers.Pinger
	)
	if infra.Redis != nil {
		idempotencyStore = infra.Redis
		rateStore = infra.Redis
		redisPinger = infra.Redis
	}

	loginLimiter := middleware.LoginRateLimit(middleware.LoginLimits{
		Window:     cfg.AuthRateLimit.LoginWindow,
		PerIP:      cfg.AuthRateLimit.LoginIPLimit,
		PerCashier: cfg.AuthRateLimit.LoginCashierLimit,
	}, rateStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": infra.DB,
			"redis":    redisPinger,
		}))
	})

	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(loginLimiter).Post("/auth/login", controllers.AuthLogin(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Get("/products", controllers.ProductSearch(svc.Products, logg))
			r.Get("/products/{productID}", controllers.ProductGet(svc.Products, logg))

			r.Route("/sales", func(r chi.Router) {
				r.Post("/", controllers.SaleCreate(svc.Sales, logg))
				r.Get("/", controllers.SaleList(svc.Sales, logg))

				r.Route("/{saleID}", func(r chi.Router) {
					r.Get("/", controllers.SaleGet(svc.Sales, logg))
					r.Post("/items", controllers.SaleAddItem(svc.Sales, logg))
					r.Put("/items/{itemID}", controllers.SaleUpdateItem(svc.Sales, logg))
					r.Delete("/items/{itemID}", controllers.SaleRemoveItem(svc.Sales, logg))
					r.Put("/discount", controllers.SaleApplyDiscount(svc.Sales, logg))
					r.Post("/complete", controllers.SaleComplete(svc.Sales, logg))
					r.Post("/void", controllers.SaleVoid(svc.Sales, logg))
					r.Post("/payments", controllers.PaymentAdd(svc.Payments, logg))
					r.Get("/payments/summary", controllers.PaymentSummary(svc.Payments, logg))
				})
			})
		})
	})

	return r
}
