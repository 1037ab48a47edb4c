package manifest

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"drive-cache/core/utils"

	"go.uber.org/zap"
)

// Persister stores committed snapshots.
type Persister interface {
	SaveManifest(ctx context.Context, snap Snapshot) error
}

// Manifest is the versioned map of stable id to asset.
type Manifest struct {
	// wmu guards work; only the sync engine mutates it.
	wmu  sync.Mutex
	work map[string]Asset

	mu        sync.RWMutex
	published Snapshot

	persister Persister
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an empty manifest at version 0.
func New(logger *zap.Logger, persister Persister) *Manifest {
	return &Manifest{
		work:      make(map[string]Asset),
		published: Snapshot{Assets: map[string]Asset{}},
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}
}

// Restore replaces both the working set and the published snapshot with a
// previously persisted state.
func (m *Manifest) Restore(snap Snapshot) {
	assets := make(map[string]Asset, len(snap.Assets))
	for id, a := range snap.Assets {
		a.ID = id
		assets[id] = a
	}

	m.wmu.Lock()
	m.work = maps.Clone(assets)
	m.wmu.Unlock()

	m.mu.Lock()
	m.published = Snapshot{Version: snap.Version, UpdatedAt: snap.UpdatedAt, Assets: assets}
	m.mu.Unlock()
}

// Upsert stages an asset. It returns false when an entry with the same hash
// and path is already staged.
func (m *Manifest) Upsert(a Asset) bool {
	m.wmu.Lock()
	defer m.wmu.Unlock()

	if prev, ok := m.work[a.ID]; ok && prev.Hash == a.Hash && prev.Path == a.Path {
		return false
	}
	a.URL = AssetURL(a.Path)
	m.work[a.ID] = a
	return true
}

// Get returns the staged asset for id.
func (m *Manifest) Get(id string) (Asset, bool) {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	a, ok := m.work[id]
	return a, ok
}

// Remove unstages id and returns what was there.
func (m *Manifest) Remove(id string) (Asset, bool) {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	a, ok := m.work[id]
	if ok {
		delete(m.work, id)
	}
	return a, ok
}

// RemoveByPrefix unstages every part of the multi-part item id.
func (m *Manifest) RemoveByPrefix(id string) []Asset {
	m.wmu.Lock()
	defer m.wmu.Unlock()

	prefix := id + ":"
	var removed []Asset
	for key, a := range m.work {
		if strings.HasPrefix(key, prefix) {
			removed = append(removed, a)
			delete(m.work, key)
		}
	}
	return removed
}

// PartsOf returns the staged parts of the multi-part item id keyed by asset id.
func (m *Manifest) PartsOf(id string) map[string]Asset {
	m.wmu.Lock()
	defer m.wmu.Unlock()

	prefix := id + ":"
	parts := make(map[string]Asset)
	for key, a := range m.work {
		if strings.HasPrefix(key, prefix) {
			parts[key] = a
		}
	}
	return parts
}

// IDs returns the staged asset ids.
func (m *Manifest) IDs() []string {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	ids := make([]string, 0, len(m.work))
	for id := range m.work {
		ids = append(ids, id)
	}
	return ids
}

// Staged returns a copy of the working set.
func (m *Manifest) Staged() map[string]Asset {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	return maps.Clone(m.work)
}

// Commit publishes the working set as the next version and persists it.
// A persistence failure is logged; the in-memory version still advances so
// subscribers are not left behind.
func (m *Manifest) Commit(ctx context.Context) int64 {
	m.wmu.Lock()
	assets := maps.Clone(m.work)
	m.wmu.Unlock()

	now := m.now().UTC()

	m.mu.Lock()
	snap := Snapshot{
		Version:   m.published.Version + 1,
		UpdatedAt: &now,
		Assets:    assets,
	}
	m.published = snap
	m.mu.Unlock()

	if m.persister != nil {
		if err := m.persister.SaveManifest(ctx, snap); err != nil {
			m.logger.Error("Failed to persist manifest", zap.Int64("version", snap.Version), zap.Error(err))
		}
	}

	return snap.Version
}

// Version returns the published version.
func (m *Manifest) Version() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published.Version
}

// Snapshot returns the published snapshot. The asset map is shared and must
// not be modified.
func (m *Manifest) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published
}

// Len returns the number of published assets.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.published.Assets)
}

// Scoped returns the published snapshot restricted to assets below scope,
// with paths and URLs relative to it.
func (m *Manifest) Scoped(scope string) Snapshot {
	snap := m.Snapshot()
	if scope == "" {
		return snap
	}

	assets := make(map[string]Asset)
	for id, a := range snap.Assets {
		rel, ok := utils.StripScope(a.Path, scope)
		if !ok {
			continue
		}
		a.Path = rel
		a.URL = AssetURL(rel)
		assets[id] = a
	}
	return Snapshot{Version: snap.Version, UpdatedAt: snap.UpdatedAt, Assets: assets}
}

// CountScoped returns how many published assets are visible under scope.
func (m *Manifest) CountScoped(scope string) int {
	snap := m.Snapshot()
	if scope == "" {
		return len(snap.Assets)
	}
	n := 0
	for _, a := range snap.Assets {
		if _, ok := utils.StripScope(a.Path, scope); ok {
			n++
		}
	}
	return n
}
