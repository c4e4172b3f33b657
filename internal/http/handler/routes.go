package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"vlocr/internal/cache"
	"vlocr/internal/queue"
	"vlocr/internal/service"
	"vlocr/internal/webhook"
)

// RegisterRoutes attaches the versioned API surface to the provided Fiber
// app. Handlers stay thin; all business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, rdb *cache.Client, svc service.OCRService, q *queue.Queue, hooks *webhook.Registry) {
	// Backward-compatible simple liveness probe at the root
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	v1 := app.Group("/api/v1")

	v1.Post("/ocr", ProcessOCR(svc))
	v1.Post("/v2/ocr", ProcessOCRv2(svc))
	v1.Post("/ocr/batch", BatchOCR(svc))
	v1.Get("/ocr/:job_id", GetJob(svc))
	v1.Delete("/ocr/:job_id", CancelJob(svc))

	v1.Post("/classify", ClassifyDocument(svc))
	v1.Post("/detect-language", DetectLanguage(svc))
	v1.Post("/extract-entities", ExtractEntities(svc))
	v1.Post("/structured", StructuredOCR(svc))

	v1.Post("/webhooks/register", RegisterWebhook(hooks))
	v1.Get("/webhooks", ListWebhooks(hooks))
	v1.Get("/webhooks/:webhook_id", GetWebhook(hooks))
	v1.Get("/webhooks/:webhook_id/history", WebhookHistory(hooks))
	v1.Delete("/webhooks/:webhook_id", UnregisterWebhook(hooks))

	v1.Get("/health", Health(db, rdb, svc))
	v1.Get("/ready", Ready(db))
	v1.Get("/live", Live())
	v1.Get("/models", Models(svc, q))
}
