// Package api provides the HTTP APIs of the weather and recommendation
// services.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/stylecast/stylecast/internal/api/handler"
	"github.com/stylecast/stylecast/internal/api/middleware"
	"github.com/stylecast/stylecast/internal/recommend"
	"github.com/stylecast/stylecast/internal/weather"
)

// WeatherRouterConfig holds configuration for the weather service router.
type WeatherRouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	Cache     *weather.Cache
	Ready     func() bool
}

// NewWeatherRouter creates the chi router of the weather service.
func NewWeatherRouter(cfg WeatherRouterConfig) *chi.Mux {
	r := chi.NewRouter()
	useCommonMiddleware(r, "stylecast-weather", cfg.Logger, cfg.Metrics)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Ready)
	weatherHandler := handler.NewWeatherHandler(cfg.Cache)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)

		r.Route("/weather", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Post("/proximity", weatherHandler.GetByProximity)
			r.Route("/city/{city}", func(r chi.Router) {
				r.Get("/", weatherHandler.GetByCity)
				r.Get("/forecast", weatherHandler.GetForecast)
				r.Get("/country/{countryCode}", weatherHandler.GetByCityCountry)
			})
		})
	})

	return r
}

// RecommendationRouterConfig holds configuration for the recommendation
// service router.
type RecommendationRouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	Engine    *recommend.Engine
	Ready     func() bool
}

// NewRecommendationRouter creates the chi router of the recommendation
// service.
func NewRecommendationRouter(cfg RecommendationRouterConfig) *chi.Mux {
	r := chi.NewRouter()
	useCommonMiddleware(r, "stylecast-recommendation", cfg.Logger, cfg.Metrics)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Ready)
	recHandler := handler.NewRecommendationHandler(cfg.Engine)

	// LLM-backed endpoints get the stricter limit.
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)

		r.Route("/recommendations", func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/simple", recHandler.Simple)
			r.Post("/complex", recHandler.Complex)
			r.Post("/custom", recHandler.Custom)
		})
	})

	return r
}

// useCommonMiddleware installs the shared middleware stack. Order matters.
func useCommonMiddleware(r *chi.Mux, serviceName string, logger zerolog.Logger, metrics *middleware.Metrics) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if metrics != nil {
		r.Use(metrics.Middleware())
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)
}
