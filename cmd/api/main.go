// cmd/api/main.go

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"trendboard/internal/adapter/events"
	"trendboard/internal/adapter/source"
	"trendboard/internal/adapter/storage"
	"trendboard/internal/config"
	"trendboard/internal/domain/trend"
	"trendboard/internal/logger"
	"trendboard/internal/metrics"
	"trendboard/internal/server"
	"trendboard/internal/server/handlers"
	"trendboard/internal/service/analytics"
	"trendboard/internal/service/ingest"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl = zl.With(zap.String("env", cfg.Environment))

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Document store
	mongoClient, err := storage.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		zl.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			zl.Warn("MongoDB disconnect error", zap.Error(err))
		}
	}()

	mongoDB := mongoClient.Database(cfg.Mongo.Database)
	collections := storage.CollectionsFromConfig(cfg.Mongo)
	trendStore := storage.NewTrendStore(mongoDB, collections)
	productStore := storage.NewProductStore(mongoDB, collections)

	// Run ledger
	var runStore *storage.RunStore
	if cfg.Database.Enabled {
		db, err := storage.ConnectPostgres(ctx, cfg.Database)
		if err != nil {
			zl.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer db.Close()

		runStore = storage.NewRunStore(db)
		if err := runStore.EnsureSchema(ctx); err != nil {
			zl.Fatal("Failed to prepare run ledger", zap.Error(err))
		}
	}

	// Event bus
	var publisher trend.EventPublisher = events.Nop{}
	var bus handlers.Subscriber
	if cfg.NATS.URL != "" {
		natsConn, err := events.Connect(cfg.NATS, zl)
		if err != nil {
			zl.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Close()

		publisher = events.NewPublisher(natsConn, cfg.NATS.EventsTopic, zl)
		bus = natsConn
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// Initialize services
	sourceClient := source.NewClient(cfg.Source, zl)

	var recorder trend.RunRecorder
	var runLister analytics.RunLister
	if runStore != nil {
		recorder = runStore
		runLister = runStore
	}

	pipeline := ingest.NewPipeline(
		sourceClient,
		trendStore,
		productStore,
		ingest.NewRatePacer(cfg.Ingest.EnrichInterval),
		recorder,
		publisher,
		m,
		zl,
		ingest.PipelineConfig{
			PageSize:   cfg.Source.PageSize,
			EnrichTopN: cfg.Ingest.EnrichTopN,
		},
	)

	analyticsService := analytics.NewService(
		trendStore,
		productStore,
		runLister,
		analytics.Config{MaxProductCount: cfg.Ingest.MaxProductCount},
		zl,
	)

	scheduler := ingest.NewScheduler(pipeline, ingest.SchedulerConfig{
		Schedule:   cfg.Ingest.Schedule,
		Genders:    cfg.Ingest.ScheduleGenders,
		Categories: cfg.Ingest.ScheduleCategory,
	}, zl)

	if err := scheduler.Start(ctx); err != nil {
		zl.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		cfg.Auth,
		pipeline,
		analyticsService,
		bus,
		cfg.NATS.EventsTopic,
		registry,
		zl,
	)

	// Start HTTP server
	go func() {
		zl.Info("Starting HTTP server", zap.String("host", cfg.Server.Host), zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	zl.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Stop scheduler
	if err := scheduler.Stop(shutdownCtx); err != nil {
		zl.Error("Scheduler shutdown error", zap.Error(err))
	}

	zl.Info("Shutdown complete")
}
