package apiv1

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp() *fiber.App {
	app := fiber.New()
	v1 := app.Group("/api/v1")
	RegisterHandlers(v1, NewAPIServer())
	return app
}

func TestGetPing(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var pong Pong
	require.NoError(t, json.Unmarshal(body, &pong))
	assert.Equal(t, "pong", pong.Ping)
}

func TestEndpointsRequireAuthentication(t *testing.T) {
	app := setupTestApp()

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{fiber.MethodGet, "/api/v1/replies", ""},
		{fiber.MethodGet, "/api/v1/analytics", ""},
		{fiber.MethodPost, "/api/v1/mentions", `{"tweet_id":"1","tweet_text":"hi"}`},
		{fiber.MethodPost, "/api/v1/replies/1/engagement", `{"likes":1}`},
	}

	for _, tc := range cases {
		var req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		if tc.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}
