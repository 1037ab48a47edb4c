// Package storage is the cache byte store.
//
// Store is the path-addressed interface the sync engine writes through. Two
// backends exist:
//
//   - DiskStore: afero filesystem rooted at the cache dir (default).
//   - ObjectStore: an S3/MinIO bucket, via the Client interface wrapping
//     minio-go so it can be mocked (see core/storage/mocks).
//
// Hashing happens in core/utils; backends only report what they stored.
//
// # Usage
//
//	store, err := storage.NewStore(ctx, cfg.Storage)
//	res, err := store.Write(ctx, "tenantA/logo.png", data)
package storage
