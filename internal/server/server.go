// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"trendboard/internal/config"
	"trendboard/internal/domain/trend"
	"trendboard/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server. bus may be nil when NATS is not
// configured; the event feed then answers 503.
func NewServer(
	cfg config.ServerConfig,
	auth config.AuthConfig,
	ingester trend.Ingester,
	analytics trend.Analytics,
	bus handlers.Subscriber,
	eventsTopic string,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	router := chi.NewRouter()
	logger = logger.Named("http")

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	trendHandler := handlers.NewTrendHandler(analytics, logger)
	productHandler := handlers.NewProductHandler(analytics, logger)
	runHandler := handlers.NewRunHandler(analytics, logger)
	ingestHandler := handlers.NewIngestHandler(ingester, auth.TriggerSecret, logger)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Ingestion triggers run to completion, so no request timeout
			r.Route("/ingest", func(r chi.Router) {
				r.Post("/trends", ingestHandler.TriggerTrendSync)
				r.Post("/products", ingestHandler.TriggerEnrichment)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(cfg.RequestTimeout))

				// Trends API
				r.Route("/trends", func(r chi.Router) {
					r.Get("/top", trendHandler.GetTopTrends)
					r.Get("/timeseries", trendHandler.GetTimeSeries)
					r.Get("/categories", trendHandler.GetCategories)
					r.Get("/lookup", trendHandler.LookupTrend)
				})

				// Products API
				r.Route("/products", func(r chi.Router) {
					r.Get("/", productHandler.ListProducts)
					r.Get("/contribution", productHandler.GetContribution)
					r.Get("/price-ranges", productHandler.GetPriceRanges)
				})

				r.Get("/runs", runHandler.ListRuns)
			})
		})
	})

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// WebSocket endpoint for live pipeline events
	router.Get("/ws/ingest", handlers.IngestFeedHandler(bus, eventsTopic, logger))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
