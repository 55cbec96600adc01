package credits

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	creditsvc "carbon-ledger/internal/application/credits"
	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCreditsApp(t *testing.T) (*fiber.App, *ledger.Ledger) {
	l := ledger.New(ledger.Options{})
	ctx := context.Background()
	require.NoError(t, l.Register(ctx, "A", "Acme"))
	require.NoError(t, l.Register(ctx, "B", "Beta"))

	h := &Handlers{Service: &creditsvc.Service{
		Ledger: l,
		Clock:  func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) },
	}}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := strings.Clone(c.Get("X-Test-Org")); id != "" {
			c.Locals("org", map[string]interface{}{"identity": id})
		}
		return c.Next()
	})
	app.Get("/stats", h.Stats)
	auth := middleware.RequireAuth()
	app.Post("/credits/issue", auth, h.Issue)
	app.Post("/credits/transfer", auth, h.Transfer)
	app.Post("/credits/retire", auth, h.Retire)
	app.Get("/credits/owned", auth, h.Owned)
	app.Get("/credits/:id", h.View)
	return app, l
}

func call(t *testing.T, app *fiber.App, method, path, org string, body interface{}) (*http.Response, map[string]interface{}) {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if org != "" {
		req.Header.Set("X-Test-Org", org)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func data(out map[string]interface{}) map[string]interface{} {
	return out["data"].(map[string]interface{})
}

func TestIssueTransferRetire(t *testing.T) {
	app, l := setupCreditsApp(t)

	resp, out := call(t, app, "POST", "/credits/issue", "A", map[string]interface{}{"amount": 100, "project_type": "forestry"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), data(out)["credit_id"])

	resp, _ = call(t, app, "POST", "/credits/transfer", "A", map[string]interface{}{"credit_id": 1, "recipient": "B"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(100), l.BalanceOf("B"))

	resp, out = call(t, app, "GET", "/credits/owned", "B", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, data(out)["credits"], 1)
	assert.Equal(t, float64(100), out["metadata"].(map[string]interface{})["amount"])

	resp, out = call(t, app, "POST", "/credits/retire", "B", map[string]interface{}{"credit_id": 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	credit := data(out)["credit"].(map[string]interface{})
	assert.Equal(t, true, credit["retired"])
	assert.Equal(t, "B", credit["owner"])

	resp, out = call(t, app, "GET", "/stats", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(100), data(out)["total_issued"])
	assert.Equal(t, float64(100), data(out)["total_retired"])
	assert.Equal(t, float64(0), data(out)["outstanding"])
}

func TestErrorStatuses(t *testing.T) {
	app, _ := setupCreditsApp(t)
	resp, _ := call(t, app, "POST", "/credits/issue", "A", map[string]interface{}{"amount": 10, "project_type": "solar"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	cases := []struct {
		name   string
		method string
		path   string
		org    string
		body   interface{}
		code   int
	}{
		{"anonymous issue", "POST", "/credits/issue", "", map[string]interface{}{"amount": 1, "project_type": "x"}, fiber.StatusUnauthorized},
		{"zero amount", "POST", "/credits/issue", "A", map[string]interface{}{"amount": 0, "project_type": "x"}, fiber.StatusBadRequest},
		{"blank project", "POST", "/credits/issue", "A", map[string]interface{}{"amount": 5, "project_type": " "}, fiber.StatusBadRequest},
		{"unregistered issuer", "POST", "/credits/issue", "ghost", map[string]interface{}{"amount": 5, "project_type": "x"}, fiber.StatusNotFound},
		{"missing recipient", "POST", "/credits/transfer", "A", map[string]interface{}{"credit_id": 1}, fiber.StatusBadRequest},
		{"unknown recipient", "POST", "/credits/transfer", "A", map[string]interface{}{"credit_id": 1, "recipient": "ghost"}, fiber.StatusNotFound},
		{"not owner", "POST", "/credits/transfer", "B", map[string]interface{}{"credit_id": 1, "recipient": "A"}, fiber.StatusForbidden},
		{"unknown credit", "POST", "/credits/retire", "A", map[string]interface{}{"credit_id": 99}, fiber.StatusNotFound},
		{"bad id", "GET", "/credits/abc", "", nil, fiber.StatusBadRequest},
		{"missing credit", "GET", "/credits/42", "", nil, fiber.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := call(t, app, tc.method, tc.path, tc.org, tc.body)
			assert.Equal(t, tc.code, resp.StatusCode)
			assert.Equal(t, "error", out["status"])
		})
	}

	resp, _ = call(t, app, "POST", "/credits/retire", "A", map[string]interface{}{"credit_id": 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = call(t, app, "POST", "/credits/retire", "A", map[string]interface{}{"credit_id": 1})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, out := call(t, app, "GET", "/credits/1", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, data(out)["credit"].(map[string]interface{})["retired"])
}
