package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"scoutapi/internal/ai"
	"scoutapi/internal/config"
	"scoutapi/internal/database"
	"scoutapi/internal/database/migration"
	"scoutapi/internal/datastore"
	handlers "scoutapi/internal/http/handler"
	"scoutapi/internal/http/middleware"
	"scoutapi/internal/identity"
	"scoutapi/internal/kv"
	"scoutapi/internal/otel"
	"scoutapi/internal/repository"
	"scoutapi/internal/repository/local"
	"scoutapi/internal/repository/postgres"
	"scoutapi/internal/service"
	"scoutapi/internal/storage"
	"scoutapi/internal/textextract"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	// The local key/value store always exists; it backs guest sessions and
	// local-mode persistence.
	localStore, err := kv.OpenSQLite(cfg.LocalDBPath)
	if err != nil {
		logger.Fatal("failed to open local store", zap.Error(err))
	}
	defer localStore.Close()

	resolver := identity.NewResolver(identity.ContextProvider{}, localStore)
	localRepo := local.NewPaperLocal(localStore, resolver.GuestID)

	// The hosted backend is optional: without DB configuration every
	// operation routes to the local store.
	var db *sql.DB
	var remoteRepo repository.Backend
	var remoteAux datastore.RemoteAux
	if cfg.Database.Configured() {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, logger); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}

		pg := postgres.NewPaperPostgres(db, postgres.NewListCache(time.Duration(cfg.PapersCacheTTLSec)*time.Second))
		remoteRepo = pg
		remoteAux = pg
	} else {
		logger.Info("no database configured, running local-only")
	}

	store := datastore.New(resolver, remoteRepo, remoteAux, localRepo, logger)

	// Without an API key the analysis endpoints report failure; persistence
	// and search still work.
	var analyzer service.Analyzer
	if cfg.Gemini.APIKey != "" {
		analyzer, err = ai.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Fatal("failed to initialize analysis client", zap.Error(err))
		}
	} else {
		logger.Warn("no analysis api key configured")
	}

	// Object storage is optional; uploads are archived only when configured.
	var archive storage.Archive
	if cfg.MinIO.Configured() {
		archive, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
	}

	svc := service.NewPaperService(store, analyzer, textextract.PlainText{}, archive, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Auth())
	app.Use(middleware.Logger(logger))
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMW.Handler())
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	handlers.RegisterRoutes(app, db, svc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
