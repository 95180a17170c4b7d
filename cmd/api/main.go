package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"wordapi/internal/config"
	"wordapi/internal/convert"
	"wordapi/internal/database"
	"wordapi/internal/database/migration"
	"wordapi/internal/fetch"
	handlers "wordapi/internal/http/handler"
	"wordapi/internal/http/middleware"
	"wordapi/internal/links"
	"wordapi/internal/merge"
	"wordapi/internal/otel"
	"wordapi/internal/repository"
	"wordapi/internal/repository/postgres"
	"wordapi/internal/service"
	"wordapi/internal/storage"
	"wordapi/internal/store"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutCtx)
	}()

	// The ingestion audit log is optional; without a configured database the
	// server runs with auditing disabled.
	var db *sql.DB
	var auditRepo repository.IngestionRepository
	if cfg.Database.Host != "" {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log); err != nil {
			log.WithError(err).Fatal("failed to migrate database")
		}
		auditRepo = postgres.NewIngestionPostgres(db)
	} else {
		log.Info("no database configured, ingestion audit log disabled")
	}

	// Object storage is optional; without it publish_document is disabled.
	var objStore storage.Storage
	if cfg.MinIO.Endpoint != "" {
		objStore, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize object storage")
		}
	} else {
		log.Info("no object storage configured, document publication disabled")
	}

	issuer, err := links.NewIssuer(cfg.DownloadBaseURL)
	if err != nil {
		log.WithError(err).Fatal("invalid download base URL")
	}

	tempStore := store.New(log,
		store.WithTTL(time.Duration(cfg.Store.TTLSec)*time.Second),
		store.WithMaxEntries(cfg.Store.MaxEntries),
	)
	defer tempStore.Close()

	fetcher := fetch.New(
		&http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSec) * time.Second},
		cfg.Fetch.MaxBodyBytes,
		log,
	)

	svc := service.NewWordService(service.Deps{
		DocumentsDir:  cfg.DocumentsDir,
		Store:         tempStore,
		Fetcher:       fetcher,
		Links:         issuer,
		Merger:        merge.NewEngine(nil),
		Converter:     convert.New(cfg.Convert.Binary, time.Duration(cfg.Convert.TimeoutSec)*time.Second, nil, log),
		Objects:       objStore,
		PresignExpiry: time.Duration(cfg.MinIO.PresignExpirySec) * time.Second,
		Audit:         auditRepo,
		Log:           log,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Global middleware: request IDs first so the logger and error envelope
	// can pick them up.
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register prometheus metrics")
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(c.Context())
		return nil
	})

	handlers.RegisterRoutes(app, db, svc)

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
