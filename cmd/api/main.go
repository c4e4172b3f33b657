package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"vlocr/docs"
	"vlocr/internal/cache"
	"vlocr/internal/config"
	"vlocr/internal/database"
	"vlocr/internal/database/migration"
	handlers "vlocr/internal/http/handler"
	"vlocr/internal/http/middleware"
	"vlocr/internal/inference"
	"vlocr/internal/model"
	"vlocr/internal/otel"
	"vlocr/internal/queue"
	"vlocr/internal/repository/postgres"
	"vlocr/internal/service"
	"vlocr/internal/storage"
	"vlocr/internal/webhook"
)

// @title VLOCR API
// @version 1.0
// @description OCR orchestration service wrapping a vision-language model.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC
	if tz := os.Getenv("TZ"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing: OTLP exporter, degrades to noop when disabled or unreachable
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// PostgreSQL connection (pgx via database/sql, instrumented with otelsql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// S3-compatible object storage for uploaded documents
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Redis: result cache, rate limiter and job status mirror
	rdb, err := cache.New(cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	// Inference engine: remote VL model or local tesseract fallback
	engine, err := inference.New(ctx, cfg.Model)
	if err != nil {
		log.Fatalf("failed to initialize inference engine: %v", err)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	jobRepo := postgres.NewJobPostgres(db)

	svc := service.NewOCRService(cfg, engine, objStore, docRepo, jobRepo, rdb)

	reg := prometheus.NewRegistry()
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	dispatcher := webhook.NewDispatcher(cfg.Webhook)
	hooks := webhook.NewRegistry()

	// Terminal jobs fan out to the webhook dispatcher, registered
	// subscriptions, and the Redis mirror.
	notify := func(job *model.Job) {
		if data, err := json.Marshal(job); err == nil {
			if err := rdb.SetJob(context.Background(), job.ID, data); err != nil {
				log.Printf(`{"component":"main","event":"job_mirror_failed","job_id":%q,"error":%q}`, job.ID, err.Error())
			}
		}
		if job.WebhookURL != "" {
			go dispatcher.Notify(context.Background(), job.WebhookURL, job)
		}
		go dispatcher.Broadcast(context.Background(), hooks, "job."+string(job.Status), job)
	}

	q := queue.New(queue.Options{
		Workers:         cfg.Queue.Workers,
		MaxRetries:      cfg.Queue.MaxRetries,
		RetryBackoffSec: cfg.Queue.RetryBackoffSec,
	}, jobRepo, svc.ProcessJob, notify)
	svc.SetQueue(q)
	// Pick up jobs that were still pending when the previous process exited.
	if err := q.Restore(ctx); err != nil {
		log.Printf(`{"component":"main","event":"queue_restore_failed","error":%q}`, err.Error())
	}
	q.Start()

	// Keep the queue depth gauge fresh.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				promMiddleware.SetJobsQueued(q.Depth())
			case <-ctx.Done():
				return
			}
		}
	}()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    (cfg.Processing.MaxFileSizeMB + 1) << 20,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))
	app.Use(promMiddleware.Handler())
	app.Use(middleware.APIKey(cfg.Auth.Key))
	app.Use(middleware.RateLimit(rdb, cfg.RateLimit))

	handlers.RegisterRoutes(app, db, rdb, svc, q, hooks)

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf(`{"component":"main","event":"server_shutdown_failed","error":%q}`, err.Error())
	}
	if err := q.Stop(shutdownCtx); err != nil {
		log.Printf(`{"component":"main","event":"queue_shutdown_failed","error":%q}`, err.Error())
	}
}
