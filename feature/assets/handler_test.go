package assets

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"drive-cache/core/middleware/auth"
	"drive-cache/core/storage"
	"drive-cache/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, scope string, store storage.Store) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.ScopeKey, scope)
		return c.Next()
	})
	require.NoError(t, NewFeature(store, zap.NewNop()).Load(app))
	return app
}

func seededStore(t *testing.T) storage.Store {
	t.Helper()
	store := storage.NewDiskStore(afero.NewMemMapFs())
	ctx := context.Background()
	_, err := store.Write(ctx, "tenantA/logo.png", []byte("png-bytes"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "tenantA/config.gsheet/my items.json", []byte(`[{"a":1}]`))
	require.NoError(t, err)
	_, err = store.Write(ctx, "tenantB/secret.txt", []byte("secret"))
	require.NoError(t, err)
	return store
}

func TestHandleGetAsset(t *testing.T) {
	app := setupTestApp(t, "tenantA", seededStore(t))

	tests := []struct {
		name         string
		path         string
		expectedCode int
		expectedType string
		expectedBody string
	}{
		{"Binary", "/assets/logo.png", 200, "image/png", "png-bytes"},
		{"EscapedSheetPart", "/assets/config.gsheet/my%20items.json", 200, "application/json", `[{"a":1}]`},
		{"Missing", "/assets/nope.png", 404, "", `{"error":"Not Found"}`},
		{"OtherScope", "/assets/../tenantB/secret.txt", 404, "", ""},
		{"EscapedTraversal", "/assets/%2E%2E/tenantB/secret.txt", 404, "", ""},
		{"Empty", "/assets/", 404, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			if tt.expectedType != "" {
				assert.Contains(t, resp.Header.Get("Content-Type"), tt.expectedType)
				assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
			}
			if tt.expectedBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.expectedBody, string(body))
			}
		})
	}
}

func TestHandleGetAssetWholeCache(t *testing.T) {
	app := setupTestApp(t, "", seededStore(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/assets/tenantB/secret.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "secret", string(body))
}

func TestHandleGetAssetETag(t *testing.T) {
	app := setupTestApp(t, "tenantA", seededStore(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/assets/logo.png", nil))
	require.NoError(t, err)
	tag := resp.Header.Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest("GET", "/assets/logo.png", nil)
	req.Header.Set("If-None-Match", tag)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 304, resp.StatusCode)
}

func TestHandleGetAssetStorageError(t *testing.T) {
	store := new(mocks.Store)
	store.On("Read", mock.Anything, "tenantA/logo.png").Return(nil, errors.New("disk gone"))
	app := setupTestApp(t, "tenantA", store)

	resp, err := app.Test(httptest.NewRequest("GET", "/assets/logo.png", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	store.AssertExpectations(t)
}
