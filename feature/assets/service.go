package assets

import (
	"context"
	"errors"

	"drive-cache/core/storage"
	"drive-cache/core/utils"

	"go.uber.org/zap"
)

// ErrNotFound is returned for paths outside the scope or missing from the cache.
var ErrNotFound = errors.New("asset not found")

// Service serves cached bytes.
type Service struct {
	store  storage.Store
	logger *zap.Logger
}

// NewService creates a new assets service.
func NewService(store storage.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Read returns the bytes for rel as seen from scope.
func (s *Service) Read(ctx context.Context, scope, rel string) ([]byte, error) {
	full, ok := utils.ScopedPath(scope, rel)
	if !ok {
		return nil, ErrNotFound
	}
	data, err := s.store.Read(ctx, full)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}
