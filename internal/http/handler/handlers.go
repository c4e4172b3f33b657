package handler

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vlocr/internal/cache"
	"vlocr/internal/model"
	"vlocr/internal/queue"
	"vlocr/internal/service"
)

// uploadFromForm reads the multipart "file" field into memory. Returns nil
// when the field is absent; the service decides whether that is an error.
func uploadFromForm(c *fiber.Ctx) (*service.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}
	return uploadFromHeader(fh)
}

func uploadFromHeader(fh *multipart.FileHeader) (*service.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &service.Upload{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

func formBool(c *fiber.Ctx, key string) bool {
	v, err := strconv.ParseBool(c.FormValue(key))
	return err == nil && v
}

// parseParams reads processing options from the multipart form fields.
func parseParams(c *fiber.Ctx) service.ProcessParams {
	params := service.ProcessParams{
		OutputFormat:     c.FormValue("output_format"),
		ExtractFields:    formBool(c, "extract_fields"),
		StructuredOutput: formBool(c, "structured_output"),
		DetectLanguage:   formBool(c, "detect_language"),
		ClassifyDocument: formBool(c, "classify_document"),
		Async:            formBool(c, "async"),
		Priority:         model.ParsePriority(c.FormValue("priority")),
		WebhookURL:       c.FormValue("webhook_url"),
	}
	if n, err := strconv.Atoi(c.FormValue("max_tokens")); err == nil && n > 0 {
		params.MaxTokens = n
	}
	if f, err := strconv.ParseFloat(c.FormValue("confidence_threshold"), 64); err == nil && f > 0 {
		params.ConfidenceThreshold = f
	}
	return params
}

// ProcessOCR handles POST /api/v1/ocr. Synchronous by default; with
// async=true the upload is queued and a 202 with the job is returned.
func ProcessOCR(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, err := uploadFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cannot open uploaded file")
		}
		params := parseParams(c)

		if params.Async {
			job, err := svc.Enqueue(c.UserContext(), up, params)
			if err != nil {
				return serviceError(c, err)
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"job_id":     job.ID,
				"status":     job.Status,
				"priority":   job.Priority,
				"created_at": job.CreatedAt,
			})
		}

		resp, err := svc.Process(c.UserContext(), up, params)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(resp)
	}
}

// ProcessOCRv2 handles POST /api/v1/v2/ocr: the sync pipeline with the
// structured stage always on, wrapped in the v2 envelope. Unlike v1, the
// body exposes only the structured result, not pages or raw text.
func ProcessOCRv2(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, err := uploadFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cannot open uploaded file")
		}
		params := parseParams(c)
		params.Async = false
		params.StructuredOutput = true
		params.ClassifyDocument = true
		params.DetectLanguage = true

		resp, err := svc.Process(c.UserContext(), up, params)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"api_version":        "2.0",
			"job_id":             uuid.New().String(),
			"status":             "completed",
			"processing_time_ms": resp.ProcessingMS,
			"document":           resp.Document,
			"result":             resp.Structured,
		})
	}
}

// BatchOCR handles POST /api/v1/ocr/batch (multipart field "files").
// Per-file failures are reported in the body, not as a request error.
func BatchOCR(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			headers = form.File["file"]
		}
		if len(headers) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
		}

		var ups []*service.Upload
		for _, fh := range headers {
			up, err := uploadFromHeader(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cannot open uploaded file")
			}
			ups = append(ups, up)
		}

		resp, err := svc.Batch(c.UserContext(), ups, parseParams(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(resp)
	}
}

// GetJob handles GET /api/v1/ocr/:job_id.
func GetJob(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := svc.Status(c.UserContext(), c.Params("job_id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(job)
	}
}

// CancelJob handles DELETE /api/v1/ocr/:job_id.
func CancelJob(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := svc.Cancel(c.UserContext(), c.Params("job_id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(job)
	}
}

// textInput reads the optional raw "text" form field used by the
// classification-style endpoints.
func textInput(c *fiber.Ctx) string {
	return c.FormValue("text")
}

// ClassifyDocument handles POST /api/v1/classify (file or text).
func ClassifyDocument(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, err := uploadFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cannot open uploaded file")
		}
		result, err := svc.Classify(c.UserContext(), up, textInput(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

// DetectLanguage handles POST /api/v1/detect-language (file or text).
func DetectLanguage(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, err := uploadFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cannot open uploaded file")
		}
		result, err := svc.DetectLanguage(c.UserContext(), up, textInput(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

// ExtractEntities handles POST /api/v1/extract-entities (file or text).
func ExtractEntities(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, err := uploadFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cannot open uploaded file")
		}
		result, err := svc.ExtractEntities(c.UserContext(), up, textInput(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

// StructuredOCR handles POST /api/v1/structured.
func StructuredOCR(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, err := uploadFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cannot open uploaded file")
		}
		result, err := svc.Structured(c.UserContext(), up)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

// Health handles GET /api/v1/health: reports per-dependency status and
// returns 503 when the database is unreachable.
func Health(db *sql.DB, rdb *cache.Client, svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		components := fiber.Map{
			"database": "healthy",
			"redis":    "healthy",
			"model":    svc.EngineInfo().Backend,
		}
		healthy := true

		if err := db.PingContext(ctx); err != nil {
			components["database"] = "unhealthy"
			healthy = false
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				components["redis"] = "unhealthy"
			}
		} else {
			components["redis"] = "disabled"
		}

		if !healthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":     "unhealthy",
				"components": components,
			})
		}
		return c.JSON(fiber.Map{"status": "healthy", "components": components})
	}
}

// Ready handles GET /api/v1/ready: readiness gate on the database.
func Ready(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "ready"})
	}
}

// Live handles GET /api/v1/live: plain liveness.
func Live() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	}
}

// Models handles GET /api/v1/models: describes the active engine and
// queue capacity.
func Models(svc service.OCRService, q *queue.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info := svc.EngineInfo()
		resp := fiber.Map{
			"backend": info.Backend,
			"model":   info.Model,
			"remote":  info.Remote,
		}
		if q != nil {
			if stats, err := q.Stats(c.UserContext()); err == nil {
				resp["queue"] = stats
			}
		}
		return c.JSON(resp)
	}
}
