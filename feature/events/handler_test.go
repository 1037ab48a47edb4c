package events

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"drive-cache/core/broadcast"
	"drive-cache/core/manifest"
	"drive-cache/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, scope string, clock clockwork.Clock) (*fiber.App, *broadcast.Broadcaster) {
	t.Helper()
	m := manifest.New(zap.NewNop(), nil)
	m.Upsert(manifest.Asset{ID: "f1", Path: "tenantA/f1.png", Hash: "h1"})
	m.Upsert(manifest.Asset{ID: "f2", Path: "tenantB/f2.png", Hash: "h2"})
	m.Commit(context.Background())

	b := broadcast.New(zap.NewNop(), broadcast.DefaultBuffer)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.ScopeKey, scope)
		return c.Next()
	})
	NewHandler(NewService(b, m, 30*time.Second, clock, zap.NewNop())).RegisterRoutes(app)
	return app, b
}

// waitForSubscriber blocks until the stream is registered. It runs off the
// test goroutine, so it polls instead of failing the test.
func waitForSubscriber(b *broadcast.Broadcaster) {
	deadline := time.Now().Add(2 * time.Second)
	for b.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandleEvents(t *testing.T) {
	app, b := setupTestApp(t, "tenantA", clockwork.NewFakeClock())

	go func() {
		waitForSubscriber(b)
		b.Notify(2, []manifest.Change{{ID: "f2", Name: "tenantB/f2.png", Action: manifest.ActionUpdated}})
		b.Notify(3, []manifest.Change{{ID: "f1", Name: "tenantA/f1.png", Action: manifest.ActionUpdated}})
		b.Close()
	}()

	resp, err := app.Test(httptest.NewRequest("GET", "/sse/events", nil), 3000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.True(t, strings.HasPrefix(body, "event: connected\ndata: {\"version\":1,\"assetCount\":1}\n\n"), body)
	assert.Contains(t, body, "id: 3\nevent: update\n")
	assert.Contains(t, body, `"changed":[{"id":"f1","name":"f1.png","action":"updated"}]`)
	assert.NotContains(t, body, "id: 2\n")
	assert.Zero(t, b.Count())
}

func TestHandleEventsKeepalive(t *testing.T) {
	clock := clockwork.NewFakeClock()
	app, b := setupTestApp(t, "tenantA", clock)

	go func() {
		waitForSubscriber(b)
		clock.BlockUntil(1)
		clock.Advance(30 * time.Second)
		// Let the stream write the comment before it is closed.
		time.Sleep(50 * time.Millisecond)
		b.Close()
	}()

	resp, err := app.Test(httptest.NewRequest("GET", "/sse/events", nil), 3000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), ": keepalive\n\n")
}
