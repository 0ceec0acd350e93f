package handler

import (
	"strings"

	"go-paper-orders/internal/service"

	"github.com/gofiber/fiber/v2"
)

type QuoteHandler struct {
	quotes service.QuoteService
}

func NewQuoteHandler(quotes service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// GetHistory searches past quotes. Query params: terms (comma separated)
func (h *QuoteHandler) GetHistory(c *fiber.Ctx) error {
	var terms []string
	for _, t := range strings.Split(c.Query("terms"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}

	matches, err := h.quotes.SearchHistory(c.UserContext(), terms)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to search quote history"})
	}
	return c.JSON(fiber.Map{"terms": terms, "data": matches})
}
