package checks

import (
	"context"
	"errors"
	"testing"

	"drive-cache/core/manifest"
	"drive-cache/core/storage"
	"drive-cache/core/utils"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, files map[string]string) storage.Store {
	t.Helper()
	store := storage.NewDiskStore(afero.NewMemMapFs())
	for p, body := range files {
		_, err := store.Write(context.Background(), p, []byte(body))
		require.NoError(t, err)
	}
	return store
}

func asset(p, body string) manifest.Asset {
	return manifest.Asset{Path: p, Hash: utils.ContentHash([]byte(body))}
}

func TestCheckCache(t *testing.T) {
	store := seedStore(t, map[string]string{
		"tenantA/ok.png":      "ok",
		"tenantA/changed.png": "tampered",
		"tenantA/stray.png":   "stray",
	})
	snap := manifest.Snapshot{
		Version: 7,
		Assets: map[string]manifest.Asset{
			"ok":      asset("tenantA/ok.png", "ok"),
			"changed": asset("tenantA/changed.png", "original"),
			"gone":    asset("tenantA/gone.png", "gone"),
		},
	}

	report, err := CheckCache(context.Background(), store, snap)
	require.NoError(t, err)

	assert.Equal(t, int64(7), report.Version)
	assert.Equal(t, 3, report.Checked)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "gone", report.Missing[0].ID)
	require.Len(t, report.Mismatched, 1)
	assert.Equal(t, "changed", report.Mismatched[0].ID)
	assert.Equal(t, utils.ContentHash([]byte("tampered")), report.Mismatched[0].Actual)
	assert.Equal(t, []string{"tenantA/stray.png"}, report.Orphans)
	assert.False(t, report.Clean())
}

func TestCheckCacheClean(t *testing.T) {
	store := seedStore(t, map[string]string{"a.png": "a"})
	snap := manifest.Snapshot{Assets: map[string]manifest.Asset{"a": asset("a.png", "a")}}

	report, err := CheckCache(context.Background(), store, snap)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Empty(t, report.Orphans)
}

type failingStore struct {
	storage.Store
}

func (failingStore) ListAll(context.Context) ([]string, error) {
	return nil, errors.New("bucket unreachable")
}

func TestCheckCacheListFailure(t *testing.T) {
	report, err := CheckCache(context.Background(), failingStore{}, manifest.Snapshot{})
	assert.Error(t, err)
	assert.Nil(t, report)
}
