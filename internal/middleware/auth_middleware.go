package middleware

import (
	"strings"

	"go-paper-orders/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const (
	ScopeCreateRequests = "requests:create"
	ScopeWriteLedger    = "ledger:write"
)

// RequireAuth validates the operator token and stores its claims in the
// request locals.
func RequireAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(secret, parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("operator_id", claims.Subject)
		c.Locals("operator_name", claims.Name)
		c.Locals("operator_scopes", claims.Scopes)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// RequireScope checks that the authenticated operator holds scope.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*jwt.Claims)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No scopes found"})
		}
		if !claims.HasScope(scope) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + scope + "' scope",
			})
		}
		return c.Next()
	}
}

// Operator returns the authenticated operator id, or "system".
func Operator(c *fiber.Ctx) string {
	if id, ok := c.Locals("operator_id").(string); ok && id != "" {
		return id
	}
	return "system"
}
