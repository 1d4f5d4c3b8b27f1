package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewarePublicPaths(t *testing.T) {
	app := fiber.New()
	app.Use(AuthMiddleware)
	app.All("/*", func(c *fiber.Ctx) error {
		return c.SendString("reached")
	})

	testCases := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"login is public", "/login", http.StatusOK},
		{"checkalive is public", "/checkalive", http.StatusOK},
		{"metrics is public", "/metrics", http.StatusOK},
		{"storage subtree is public", "/storage/logo.png", http.StatusOK},
		{"bare prefix does not leak", "/loginanything", http.StatusUnauthorized},
		{"metrics prefix does not leak", "/metricsfoo", http.StatusUnauthorized},
		{"storage prefix does not leak", "/storagedump", http.StatusUnauthorized},
		{"protected path without session", "/employee", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)

			resp, err := app.Test(req, -1)
			require.NoError(t, err, "app.Test failed")
			defer resp.Body.Close() //nolint:errcheck

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}
