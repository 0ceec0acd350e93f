package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"go-paper-orders/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/open", RequireAuth(secret), func(c *fiber.Ctx) error {
		return c.SendString(Operator(c))
	})
	app.Post("/write", RequireAuth(secret), RequireScope(ScopeWriteLedger), func(c *fiber.Ctx) error {
		return c.SendStatus(204)
	})
	return app
}

func token(t *testing.T, scopes ...string) string {
	t.Helper()
	tok, err := jwt.GenerateToken(secret, "ops-1", "Ops", scopes, time.Minute)
	require.NoError(t, err)
	return tok
}

func TestRequireAuth(t *testing.T) {
	app := newApp()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", 401},
		{"wrong scheme", "Basic abc", 401},
		{"garbage token", "Bearer abc", 401},
		{"valid", "Bearer " + token(t), 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/open", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireScope(t *testing.T) {
	app := newApp()

	for scopes, status := range map[string]int{"": 403, ScopeWriteLedger: 204, "*": 204} {
		var granted []string
		if scopes != "" {
			granted = []string{scopes}
		}
		req := httptest.NewRequest("POST", "/write", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, granted...))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, "scopes=%q", scopes)
	}
}
