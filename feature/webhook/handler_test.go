package webhook

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSyncer struct {
	channelID string
	token     string
	triggers  int
}

func (f *fakeSyncer) VerifyChannel(channelID, token string) bool {
	return channelID != "" && channelID == f.channelID && token == f.token
}

func (f *fakeSyncer) Trigger() {
	f.triggers++
}

func setupTestApp(t *testing.T) (*fiber.App, *fakeSyncer) {
	t.Helper()
	syncer := &fakeSyncer{channelID: "chan-1", token: "secret"}
	app := fiber.New()
	require.NoError(t, NewFeature(syncer, true, zap.NewNop()).Load(app))
	return app, syncer
}

func TestHandleDrive(t *testing.T) {
	tests := []struct {
		name             string
		channelID        string
		token            string
		state            string
		expectedCode     int
		expectedTriggers int
	}{
		{"Sync", "chan-1", "secret", StateSync, 200, 0},
		{"Change", "chan-1", "secret", StateChange, 200, 1},
		{"OtherState", "chan-1", "secret", "remove", 200, 0},
		{"WrongToken", "chan-1", "guess", StateChange, 403, 0},
		{"UnknownChannel", "chan-0", "secret", StateChange, 403, 0},
		{"NoHeaders", "", "", "", 403, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, syncer := setupTestApp(t)

			req := httptest.NewRequest("POST", "/webhook/drive", nil)
			if tt.channelID != "" {
				req.Header.Set(HeaderChannelID, tt.channelID)
			}
			if tt.token != "" {
				req.Header.Set(HeaderChannelToken, tt.token)
			}
			if tt.state != "" {
				req.Header.Set(HeaderResourceState, tt.state)
			}
			req.Header.Set(HeaderMessageNumber, "7")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			assert.Equal(t, tt.expectedTriggers, syncer.triggers)
		})
	}
}

func TestFeatureDisabled(t *testing.T) {
	f := NewFeature(&fakeSyncer{}, false, zap.NewNop())
	assert.False(t, f.IsEnabled())
	assert.Equal(t, "webhook", f.Name())
}
