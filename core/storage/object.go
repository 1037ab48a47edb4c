package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"drive-cache/core/utils"

	"github.com/hashicorp/go-multierror"
	"github.com/minio/minio-go/v7"
)

// ObjectStore keeps the cache in an S3 compatible bucket.
type ObjectStore struct {
	client Client
	bucket string
	prefix string
}

// NewObjectStore creates a store writing below prefix in bucket.
func NewObjectStore(client Client, bucket, prefix string) *ObjectStore {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *ObjectStore) key(p string) string {
	return s.prefix + strings.TrimPrefix(p, "/")
}

func (s *ObjectStore) Write(ctx context.Context, p string, data []byte) (WriteResult, error) {
	opts := minio.PutObjectOptions{ContentType: mime.TypeByExtension(path.Ext(p))}
	if opts.ContentType == "" {
		opts.ContentType = "application/octet-stream"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, s.key(p), bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return WriteResult{}, fmt.Errorf("failed to upload %s: %w", p, err)
	}
	return WriteResult{Hash: utils.ContentHash(data), Size: int64(len(data))}, nil
}

func (s *ObjectStore) Read(ctx context.Context, p string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

func translate(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return err
}

func (s *ObjectStore) Delete(ctx context.Context, p string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(p), minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return err
	}
	return nil
}

func (s *ObjectStore) DeleteFolder(ctx context.Context, p string) error {
	folder := strings.Trim(p, "/")
	if folder == "" {
		return fmt.Errorf("refusing to delete cache root")
	}

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(folder) + "/",
		Recursive: true,
	})

	var result *multierror.Error
	toDelete := make(chan minio.ObjectInfo)
	go func() {
		defer close(toDelete)
		for obj := range objects {
			if obj.Err != nil {
				continue
			}
			select {
			case toDelete <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	for rErr := range s.client.RemoveObjects(ctx, s.bucket, toDelete, minio.RemoveObjectsOptions{}) {
		result = multierror.Append(result, fmt.Errorf("remove %s: %w", rErr.ObjectName, rErr.Err))
	}
	return result.ErrorOrNil()
}

func (s *ObjectStore) ListAll(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, s.prefix))
	}
	return keys, nil
}

func (s *ObjectStore) ListTopLevelFolders(ctx context.Context) ([]string, error) {
	var folders []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: false}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			folders = append(folders, strings.TrimSuffix(strings.TrimPrefix(obj.Key, s.prefix), "/"))
		}
	}
	return folders, nil
}
