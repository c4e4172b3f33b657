package handler

import (
	"github.com/gofiber/fiber/v2"

	"vlocr/internal/webhook"
)

type registerWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

// RegisterWebhook handles POST /api/v1/webhooks/register. The secret is
// returned exactly once, in this response.
func RegisterWebhook(reg *webhook.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerWebhookRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if req.URL == "" {
			return writeError(c, fiber.StatusBadRequest, "URL_REQUIRED", "url is required")
		}
		if len(req.Events) == 0 {
			return writeError(c, fiber.StatusBadRequest, "EVENTS_REQUIRED", "at least one event type is required")
		}

		sub := reg.Register(req.URL, req.Events, req.Secret)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"webhook_id": sub.ID,
			"url":        sub.URL,
			"events":     sub.Events,
			"secret":     sub.Secret,
			"created_at": sub.CreatedAt,
		})
	}
}

// UnregisterWebhook handles DELETE /api/v1/webhooks/:webhook_id.
func UnregisterWebhook(reg *webhook.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !reg.Unregister(c.Params("webhook_id")) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "webhook not found")
		}
		return c.JSON(fiber.Map{"message": "webhook unregistered"})
	}
}

// ListWebhooks handles GET /api/v1/webhooks.
func ListWebhooks(reg *webhook.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"webhooks": reg.List()})
	}
}

// GetWebhook handles GET /api/v1/webhooks/:webhook_id.
func GetWebhook(reg *webhook.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub := reg.Get(c.Params("webhook_id"))
		if sub == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "webhook not found")
		}
		return c.JSON(sub)
	}
}

// WebhookHistory handles GET /api/v1/webhooks/:webhook_id/history.
func WebhookHistory(reg *webhook.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("webhook_id")
		if reg.Get(id) == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "webhook not found")
		}
		limit := c.QueryInt("limit", 100)
		deliveries := reg.History(id, limit)
		if deliveries == nil {
			deliveries = []webhook.Delivery{}
		}
		return c.JSON(fiber.Map{"deliveries": deliveries})
	}
}
