package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datasaz/cartengine-backend/api/controllers"
	cartcontrollers "github.com/datasaz/cartengine-backend/api/controllers/cart"
	"github.com/datasaz/cartengine-backend/api/middleware"
	"github.com/datasaz/cartengine-backend/internal/cart"
	"github.com/datasaz/cartengine-backend/pkg/config"
	"github.com/datasaz/cartengine-backend/pkg/db"
	"github.com/datasaz/cartengine-backend/pkg/logger"
	"github.com/datasaz/cartengine-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	cartService cart.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/", cartcontrollers.Fetch(cartService, logg))
		r.Delete("/", cartcontrollers.Clear(cartService, logg))
		r.Post("/items", cartcontrollers.AddItem(cartService, logg))
		r.Patch("/items/{itemID}", cartcontrollers.UpdateItem(cartService, logg))
		r.Delete("/items/{itemID}", cartcontrollers.RemoveItem(cartService, logg))
		r.Post("/coupon", cartcontrollers.ApplyCoupon(cartService, logg))
		r.Delete("/coupon", cartcontrollers.RemoveCoupon(cartService, logg))
		r.With(middleware.RequireUser(logg)).Post("/merge", cartcontrollers.Merge(cartService, logg))
	})

	return r
}
