package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calebmonroe/printhaus-backend/api/controllers"
	cartcontrollers "github.com/calebmonroe/printhaus-backend/api/controllers/cart"
	webhookcontrollers "github.com/calebmonroe/printhaus-backend/api/controllers/webhooks"
	"github.com/calebmonroe/printhaus-backend/api/middleware"
	cartsvc "github.com/calebmonroe/printhaus-backend/internal/cart"
	catalogsvc "github.com/calebmonroe/printhaus-backend/internal/catalog"
	checkoutsvc "github.com/calebmonroe/printhaus-backend/internal/checkout"
	paymentwebhook "github.com/calebmonroe/printhaus-backend/internal/webhooks/payment"
	"github.com/calebmonroe/printhaus-backend/pkg/config"
	"github.com/calebmonroe/printhaus-backend/pkg/db"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
	"github.com/calebmonroe/printhaus-backend/pkg/metrics"
	"github.com/calebmonroe/printhaus-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	catalogService catalogsvc.Service,
	webhookService paymentwebhook.Service,
	rateLimitMetrics *metrics.RateLimitMetrics,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.OwnerContext(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Webhooks authenticate by signature, not by owner; they also bypass the
	// caller rate limiter so provider retries are never shed.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", webhookcontrollers.PaymentWebhook(webhookService, cfg.Payments.WebhookSecret, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, rateLimitMetrics, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Post("/lines", cartcontrollers.CartAddLine(cartService, logg))
			r.Patch("/lines/{lineId}", cartcontrollers.CartUpdateLine(cartService, logg))
			r.Delete("/lines/{lineId}", cartcontrollers.CartRemoveLine(cartService, logg))
			r.Post("/checkout", controllers.CartCheckout(checkoutService, logg))
		})

		r.Get("/catalog/items/{itemId}", controllers.CatalogItemFetch(catalogService, logg))
	})

	return r
}
