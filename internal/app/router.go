package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/handlers"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/middleware"
)

// Router builds the HTTP routes.
func (a *App) Router() http.Handler {
	cfg := a.Config
	log := a.Logger

	healthHandler := handlers.NewHealthHandler(Version, log)
	productHandler := handlers.NewProductHandler(a.Products, log)
	pricingHandler := handlers.NewPricingHandler(a.Pricing, int64(cfg.Server.MaxBodyBytes), log)
	competitorHandler := handlers.NewCompetitorHandler(a.Competitors, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{handlers.BatchIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.ServeHTTP)

		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{productId}", productHandler.GetProduct)

		r.With(middleware.APIKeyAuth(cfg.Auth)).Post("/prices", pricingHandler.AdjustPrices)

		r.Get("/competitor-prices", competitorHandler.ListPrices)
	})

	return r
}
