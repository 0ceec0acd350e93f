package handler

import (
	"errors"
	"net/url"
	"strconv"

	"go-paper-orders/internal/middleware"
	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"
	"go-paper-orders/internal/repository"
	"go-paper-orders/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	reports     service.ReportService
	fulfillment service.FulfillmentService
}

func NewInventoryHandler(reports service.ReportService, fulfillment service.FulfillmentService) *InventoryHandler {
	return &InventoryHandler{reports: reports, fulfillment: fulfillment}
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func dateParam(c *fiber.Ctx) (string, bool) {
	raw := c.Query("date")
	if raw == "" {
		return pricing.FormatDate(pricing.Today()), true
	}
	t, err := pricing.ParseDate(raw)
	if err != nil {
		return "", false
	}
	return pricing.FormatDate(t), true
}

func (h *InventoryHandler) GetInventory(c *fiber.Ctx) error {
	date, ok := dateParam(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date, use YYYY-MM-DD"})
	}
	levels, err := h.reports.InventorySnapshot(c.UserContext(), date)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch inventory"})
	}
	return c.JSON(fiber.Map{"as_of_date": date, "data": levels})
}

func (h *InventoryHandler) GetItemStock(c *fiber.Ctx) error {
	date, ok := dateParam(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date, use YYYY-MM-DD"})
	}
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item name"})
	}
	level, err := h.reports.ItemStock(c.UserContext(), name, date)
	if errors.Is(err, repository.ErrItemNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Item not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stock"})
	}
	return c.JSON(level)
}

func (h *InventoryHandler) CreateTransaction(c *fiber.Ctx) error {
	var tx model.Transaction
	if err := c.BodyParser(&tx); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	recorded, err := h.fulfillment.RecordTransaction(c.UserContext(), &tx, middleware.Operator(c))
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, repository.ErrInvalidTransactionKind),
		errors.Is(err, repository.ErrUnpairedItemUnits),
		errors.Is(err, pricing.ErrDateParse):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "Failed to record transaction"})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": recorded})
}

func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.reports.Transactions(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(transactions)
}

func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.reports.Transaction(c.UserContext(), uint(id))
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Transaction not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(tx)
}
