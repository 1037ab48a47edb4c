package manifest

import (
	"drive-cache/core/manifest"

	"go.uber.org/zap"
)

// Reader is the read side of the manifest.
type Reader interface {
	Scoped(scope string) manifest.Snapshot
	Version() int64
}

// DriftRequester starts a rate limited background drift check.
type DriftRequester interface {
	RequestDrift() bool
}

// Service serves scoped manifest snapshots.
type Service struct {
	manifest Reader
	drift    DriftRequester
	logger   *zap.Logger
}

// NewService creates a new manifest service. drift may be nil.
func NewService(m Reader, drift DriftRequester, logger *zap.Logger) *Service {
	return &Service{manifest: m, drift: drift, logger: logger}
}

// Get returns the snapshot visible to scope. A read may start a drift check
// in the background; the snapshot returned is always the current one.
func (s *Service) Get(scope string) (manifest.Snapshot, bool) {
	started := false
	if s.drift != nil {
		started = s.drift.RequestDrift()
	}
	return s.manifest.Scoped(scope), started
}

// Version returns the published version.
func (s *Service) Version() int64 {
	return s.manifest.Version()
}
