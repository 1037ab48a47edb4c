package manifest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) SaveManifest(ctx context.Context, snap Snapshot) error {
	return m.Called(ctx, snap).Error(0)
}

func asset(id, path, hash string) Asset {
	return Asset{ID: id, Path: path, Kind: KindBinary, Hash: hash, Size: 1}
}

func TestUpsert(t *testing.T) {
	m := New(zap.NewNop(), nil)

	assert.True(t, m.Upsert(asset("f1", "a.png", "h1")))
	assert.False(t, m.Upsert(asset("f1", "a.png", "h1")), "same hash and path is a no-op")
	assert.True(t, m.Upsert(asset("f1", "b.png", "h1")), "path change")
	assert.True(t, m.Upsert(asset("f1", "b.png", "h2")), "hash change")

	a, ok := m.Get("f1")
	require.True(t, ok)
	assert.Equal(t, "/assets/b.png", a.URL)
}

func TestStagedWritesInvisibleUntilCommit(t *testing.T) {
	m := New(zap.NewNop(), nil)
	m.Upsert(asset("f1", "a.png", "h1"))

	assert.Equal(t, int64(0), m.Version())
	assert.Empty(t, m.Snapshot().Assets)
	assert.Nil(t, m.Snapshot().UpdatedAt)

	v := m.Commit(context.Background())
	assert.Equal(t, int64(1), v)
	snap := m.Snapshot()
	assert.Len(t, snap.Assets, 1)
	require.NotNil(t, snap.UpdatedAt)

	m.Upsert(asset("f2", "b.png", "h2"))
	assert.Len(t, m.Snapshot().Assets, 1, "published map is not aliased to the working set")
}

func TestCommitIsMonotonic(t *testing.T) {
	m := New(zap.NewNop(), nil)
	var last int64
	for i := 0; i < 5; i++ {
		v := m.Commit(context.Background())
		assert.Equal(t, last+1, v)
		last = v
	}
}

func TestRemoveByPrefix(t *testing.T) {
	m := New(zap.NewNop(), nil)
	m.Upsert(asset("s1:Tab1", "S.gsheet/Tab1.json", "a"))
	m.Upsert(asset("s1:Tab2", "S.gsheet/Tab2.json", "b"))
	m.Upsert(asset("s10", "other.png", "c"))

	assert.Len(t, m.PartsOf("s1"), 2)

	removed := m.RemoveByPrefix("s1")
	assert.Len(t, removed, 2)
	assert.Empty(t, m.PartsOf("s1"))

	_, ok := m.Get("s10")
	assert.True(t, ok, "ids sharing a textual prefix are untouched")
}

func TestScoped(t *testing.T) {
	m := New(zap.NewNop(), nil)
	m.Upsert(asset("f1", "tenantA/x.png", "h1"))
	m.Upsert(asset("f2", "tenantB/y.png", "h2"))
	m.Upsert(asset("f3", "tenantAB/z.png", "h3"))
	m.Commit(context.Background())

	snap := m.Scoped("tenantA")
	require.Len(t, snap.Assets, 1)
	assert.Equal(t, "x.png", snap.Assets["f1"].Path)
	assert.Equal(t, "/assets/x.png", snap.Assets["f1"].URL)
	assert.Equal(t, 1, m.CountScoped("tenantA"))
	assert.Equal(t, 3, m.CountScoped(""))

	assert.Equal(t, "tenantA/x.png", m.Snapshot().Assets["f1"].Path, "scoping does not touch the published map")
}

func TestCommitPersists(t *testing.T) {
	p := new(mockPersister)
	p.On("SaveManifest", mock.Anything, mock.MatchedBy(func(s Snapshot) bool {
		return s.Version == 1 && len(s.Assets) == 1
	})).Return(nil).Once()

	m := New(zap.NewNop(), p)
	m.Upsert(asset("f1", "a.png", "h1"))
	m.Commit(context.Background())
	p.AssertExpectations(t)
}

func TestCommitSurvivesPersistFailure(t *testing.T) {
	p := new(mockPersister)
	p.On("SaveManifest", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	m := New(zap.NewNop(), p)
	m.Upsert(asset("f1", "a.png", "h1"))
	assert.Equal(t, int64(1), m.Commit(context.Background()))
	assert.Equal(t, int64(1), m.Version())
}

func TestRestore(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m := New(zap.NewNop(), nil)
	m.Restore(Snapshot{
		Version:   7,
		UpdatedAt: &ts,
		Assets:    map[string]Asset{"f1": {Path: "a.png", Hash: "h1", URL: "/assets/a.png"}},
	})

	assert.Equal(t, int64(7), m.Version())
	a, ok := m.Get("f1")
	require.True(t, ok)
	assert.Equal(t, "f1", a.ID)
	assert.False(t, m.Upsert(Asset{ID: "f1", Path: "a.png", Hash: "h1"}))
	assert.Equal(t, int64(8), m.Commit(context.Background()))
}
