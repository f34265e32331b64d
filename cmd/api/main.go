package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pdfreview/internal/auth"
	"pdfreview/internal/config"
	"pdfreview/internal/database"
	"pdfreview/internal/database/migration"
	handlers "pdfreview/internal/http/handler"
	"pdfreview/internal/http/middleware"
	"pdfreview/internal/logging"
	"pdfreview/internal/metrics"
	"pdfreview/internal/otel"
	"pdfreview/internal/repository"
	"pdfreview/internal/repository/memory"
	"pdfreview/internal/repository/postgres"
	"pdfreview/internal/service"
	"pdfreview/internal/storage"
)

const serviceName = "pdfreview"

// @title PDF Review API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, serviceName, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return err
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}
	recorder, err := metrics.NewModerationRecorder(reg)
	if err != nil {
		return err
	}

	paging := service.Paging{
		DefaultLimit: cfg.Documents.DefaultPageSize,
		MaxLimit:     cfg.Documents.MaxPageSize,
	}
	docSvc := service.NewDocumentService(objStore, store.Documents(), logger, service.DocumentOptions{
		Paging:        paging,
		PresignExpiry: cfg.MinIO.PresignExpiry,
		DirectDelete:  cfg.Documents.DirectDelete,
	})
	modSvc := service.NewModerationService(store, logger, paging,
		service.WithRecorder(recorder),
		service.WithDiscarder(docSvc),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart framing on top of the largest accepted file
		BodyLimit: int(cfg.Documents.MaxUploadBytes) + 1<<20,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithWriter(os.Stdout, cfg.Location()))
	app.Use(otelfiber.Middleware())
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		Health:     store,
		Documents:  docSvc,
		Moderation: modSvc,
		Verifier:   verifier,
		Gatherer:   reg,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}

// openStore selects the document store backend.
func openStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewStore(db), func() { db.Close() }, nil
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
	}
}
