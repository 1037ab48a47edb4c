package integrity

import (
	"context"

	"drive-cache/core/manifest"
	"drive-cache/core/storage"
	"drive-cache/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Snapshotter returns the published manifest.
type Snapshotter interface {
	Snapshot() manifest.Snapshot
}

// Service handles integrity checks.
type Service struct {
	store    storage.Store
	manifest Snapshotter
	resyncer Resyncer
	db       *gorm.DB
	logger   *zap.Logger
}

// NewService creates a new integrity service. db may be nil, in which case
// the schema check reports an error.
func NewService(store storage.Store, m Snapshotter, resyncer Resyncer, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		manifest: m,
		resyncer: resyncer,
		db:       db,
		logger:   logger,
	}
}

// CheckCache compares the cache with the published manifest.
func (s *Service) CheckCache(ctx context.Context) (*checks.CacheReport, error) {
	return checks.CheckCache(ctx, s.store, s.manifest.Snapshot())
}

// CheckSchema verifies the state tables.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db)
}

// PlanRepair checks the cache and plans the repair of what it found.
func (s *Service) PlanRepair(ctx context.Context) (*Plan, error) {
	report, err := s.CheckCache(ctx)
	if err != nil {
		return nil, err
	}
	return BuildPlan(report), nil
}

// Repair executes plan.
func (s *Service) Repair(ctx context.Context, plan *Plan, opts Options) (int, error) {
	executed, err := ApplyPlan(ctx, s.store, s.resyncer, plan, opts)
	s.logger.Info("Integrity repair finished",
		zap.Int("planned", len(plan.Actions)),
		zap.Int("executed", executed),
		zap.Error(err))
	return executed, err
}
