// Package main provides the entrypoint for the StyleCast recommendation service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylecast/stylecast/internal/api"
	"github.com/stylecast/stylecast/internal/api/middleware"
	"github.com/stylecast/stylecast/internal/catalog"
	"github.com/stylecast/stylecast/internal/database"
	"github.com/stylecast/stylecast/internal/kv"
	"github.com/stylecast/stylecast/internal/llm/openai"
	"github.com/stylecast/stylecast/internal/recommend"
	"github.com/stylecast/stylecast/internal/recommend/weatherapi"
	"github.com/stylecast/stylecast/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "stylecast-recommendation"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting recommendation service")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8081"
	}

	weatherURL := os.Getenv("WEATHER_SERVICE_URL")
	if weatherURL == "" {
		weatherURL = "http://localhost:8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Initialize the asset catalog: Postgres when configured, otherwise the
	// bundled JSON file.
	var assets catalog.Repository
	if os.Getenv("DB_HOST") != "" {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		assets = catalog.NewPostgresRepository(pool)
		log.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("postgres catalog initialized")
	} else {
		assetsPath := os.Getenv("ASSETS_PATH")
		if assetsPath == "" {
			assetsPath = "assets/assets.json"
		}
		assets = catalog.NewJSONRepository(assetsPath, log)
		log.Info().Str("path", assetsPath).Msg("json catalog initialized")
	}

	// Response cache is optional; the engine works without it.
	var store kv.Store
	redisConfig := kv.RedisConfigFromEnv()
	redisStore, err := kv.NewRedisStore(ctx, redisConfig)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, response caching disabled")
	} else {
		defer redisStore.Close()
		store = redisStore
		log.Info().
			Str("host", redisConfig.Host).
			Int("port", redisConfig.Port).
			Msg("redis connected")
	}

	// Initialize the LLM provider
	llmConfig := openai.ConfigFromEnv(log)
	if llmConfig.APIKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY is required")
	}
	llmClient := openai.NewClient(llmConfig)

	// Initialize the weather service client
	weatherClient := weatherapi.NewClient(weatherapi.ClientConfig{
		BaseURL: weatherURL,
		Logger:  log,
	})
	log.Info().Str("url", weatherURL).Msg("weather client initialized")

	// Create the recommendation engine
	engine := recommend.NewEngine(recommend.EngineConfig{
		Weather: weatherClient,
		Catalog: assets,
		LLM:     llmClient,
		Store:   store,
		Logger:  log,
	})

	// Create router with configuration
	router := api.NewRecommendationRouter(api.RecommendationRouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Logger:    log,
		Metrics:   metrics,
		Engine:    engine,
		Ready: func() bool {
			readyCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return weatherClient.Healthy(readyCtx)
		},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
