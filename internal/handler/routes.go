package handler

import (
	"go-paper-orders/internal/middleware"
	"go-paper-orders/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Requests  *RequestHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	Quotes    *QuoteHandler
}

// SetupRoutes mounts the API under /api/v1 and the live ledger feed on /ws.
func SetupRoutes(app *fiber.App, h Handlers, secret []byte, hub *ws.Hub) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1", middleware.RequireAuth(secret))

	api.Post("/requests", middleware.RequireScope(middleware.ScopeCreateRequests), h.Requests.CreateRequest)

	api.Get("/inventory", h.Inventory.GetInventory)
	api.Get("/inventory/:name/stock", h.Inventory.GetItemStock)

	api.Get("/transactions", h.Inventory.GetTransactions)
	api.Get("/transactions/:id", h.Inventory.GetTransaction)
	api.Post("/transactions", middleware.RequireScope(middleware.ScopeWriteLedger), h.Inventory.CreateTransaction)

	api.Get("/financial-report", h.Dashboard.GetFinancialReport)
	api.Get("/dashboard/stock-movement", h.Dashboard.GetStockMovement)

	api.Get("/quotes/history", h.Quotes.GetHistory)

	if hub == nil {
		return
	}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !hub.Join(c) {
			return
		}
		defer hub.Leave(c)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
