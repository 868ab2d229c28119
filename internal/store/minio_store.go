package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"stockroom/internal/common"
)

// MinioStore keeps each collection as a <name>.json object in one bucket,
// mirroring the remote-repository-backed variant of the persistence layer.
// A missing object is initialized to an empty array, like FileStore.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to object store: %v", common.ErrPersistence, err)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the collection bucket when it does not exist.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: checking bucket %s: %v", common.ErrPersistence, s.bucket, err)
	}
	if !found {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: creating bucket %s: %v", common.ErrPersistence, s.bucket, err)
		}
	}
	return nil
}

func (s *MinioStore) objectName(name string) string {
	return name + ".json"
}

func (s *MinioStore) ReadCollection(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectName(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrPersistence, name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == minio.NoSuchKey {
			if werr := s.WriteCollection(ctx, name, emptyCollection); werr != nil {
				return nil, werr
			}
			return emptyCollection, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrPersistence, name, err)
	}
	if len(data) == 0 {
		return emptyCollection, nil
	}
	return data, nil
}

func (s *MinioStore) WriteCollection(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(name),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", common.ErrPersistence, name, err)
	}
	return nil
}

func (s *MinioStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("%w: object store unavailable: %v", common.ErrPersistence, err)
	}
	return nil
}
