package handler

import (
	"strconv"

	"go-paper-orders/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	reports service.ReportService
}

func NewDashboardHandler(reports service.ReportService) *DashboardHandler {
	return &DashboardHandler{reports: reports}
}

// GetStockMovement returns per-day stock movement for charts
// Query params: days (default 7), date (end of the window, default today)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}
	date, ok := dateParam(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date, use YYYY-MM-DD"})
	}

	data, err := h.reports.StockMovement(c.UserContext(), days, date)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stock movement"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetFinancialReport returns cash, inventory value and top sellers as of a date
func (h *DashboardHandler) GetFinancialReport(c *fiber.Ctx) error {
	date, ok := dateParam(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date, use YYYY-MM-DD"})
	}
	report, err := h.reports.FinancialReport(c.UserContext(), date)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to build financial report"})
	}
	return c.JSON(report)
}
