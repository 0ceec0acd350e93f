package handler

import (
	"errors"

	"go-paper-orders/internal/service"
	"go-paper-orders/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RequestHandler struct {
	workflow service.WorkflowService
	log      *zap.Logger
}

func NewRequestHandler(workflow service.WorkflowService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{workflow: workflow, log: log.Named("http")}
}

// CreateRequest runs one customer request through the order workflow. An
// Idempotency-Key header, when present, becomes the request id.
func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	var req service.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "fields": errs})
	}
	if key := c.Get("Idempotency-Key"); key != "" {
		req.RequestID = key
	}

	result, err := h.workflow.HandleRequest(c.UserContext(), req)
	if errors.Is(err, service.ErrDuplicateRequest) {
		return c.Status(409).JSON(fiber.Map{"error": "Request already processed"})
	}
	if err != nil {
		h.log.Error("request failed", zap.String("request_id", req.RequestID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "Failed to process request"})
	}
	return c.JSON(result)
}
