package checks

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"drive-cache/core/manifest"
	"drive-cache/core/storage"
	"drive-cache/core/utils"

	mapset "github.com/deckarep/golang-set/v2"
)

// Finding is one manifest entry whose cached bytes are wrong or absent.
type Finding struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Expected string `json:"expected_hash"`
	Actual   string `json:"actual_hash,omitempty"`
}

// CacheReport compares the cache contents with a manifest snapshot.
type CacheReport struct {
	Version    int64     `json:"version"`
	Checked    int       `json:"checked"`
	Missing    []Finding `json:"missing"`
	Mismatched []Finding `json:"mismatched"`
	Orphans    []string  `json:"orphans"`
}

// Clean reports whether the cache matches the snapshot exactly.
func (r *CacheReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Mismatched) == 0 && len(r.Orphans) == 0
}

// CheckCache reads every cached file the snapshot names and verifies its
// hash, then lists files the snapshot does not own.
func CheckCache(ctx context.Context, store storage.Store, snap manifest.Snapshot) (*CacheReport, error) {
	paths, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}
	present := mapset.NewThreadUnsafeSet(paths...)
	owned := mapset.NewThreadUnsafeSetWithSize[string](len(snap.Assets))

	report := &CacheReport{
		Version:    snap.Version,
		Missing:    []Finding{},
		Mismatched: []Finding{},
	}

	ids := make([]string, 0, len(snap.Assets))
	for id := range snap.Assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := snap.Assets[id]
		owned.Add(a.Path)
		report.Checked++

		finding := Finding{ID: id, Path: a.Path, Expected: a.Hash}
		if !present.Contains(a.Path) {
			report.Missing = append(report.Missing, finding)
			continue
		}

		data, err := store.Read(ctx, a.Path)
		if errors.Is(err, storage.ErrNotFound) {
			report.Missing = append(report.Missing, finding)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", a.Path, err)
		}
		if finding.Actual = utils.ContentHash(data); finding.Actual != a.Hash {
			report.Mismatched = append(report.Mismatched, finding)
		}
	}

	report.Orphans = present.Difference(owned).ToSlice()
	sort.Strings(report.Orphans)
	return report, nil
}
