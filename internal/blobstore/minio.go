package blobstore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/freeplay/yourleague-service/internal/config"
	"github.com/freeplay/yourleague-service/internal/types"
)

// objectPrefix groups every video under one folder of the bucket.
const objectPrefix = "videos/"

// MinioStore keeps blobs in a MinIO (or any S3 compatible) bucket.
type MinioStore struct {
	client     *minio.Client
	bucketName string
	now        func() time.Time
}

// NewMinioStore creates a new MinIO backed blob store and makes sure the
// bucket exists.
func NewMinioStore(ctx context.Context, cfg config.MinIO) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinioStore{
		client:     client,
		bucketName: cfg.BucketName,
		now:        time.Now,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return store, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func (s *MinioStore) Store(ctx context.Context, r io.Reader, suggestedName string) (Blob, error) {
	name := UniqueName(suggestedName, s.now())

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucketName, objectPrefix+name, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Blob{}, types.Wrap(types.ErrStorage, fmt.Errorf("put object %s: %w", name, err))
	}

	return Blob{Name: name, Path: PathFor(name), Size: info.Size, ModifiedAt: s.now()}, nil
}

func (s *MinioStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: blob %q", types.ErrNotFound, name)
	}

	// GetObject is lazy; stat first so a missing key is reported here.
	if _, err := s.client.StatObject(ctx, s.bucketName, objectPrefix+name, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: blob %q", types.ErrNotFound, name)
		}
		return nil, types.Wrap(types.ErrStorage, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, objectPrefix+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, err)
	}
	return obj, nil
}

func (s *MinioStore) List(ctx context.Context) ([]Blob, error) {
	var blobs []Blob
	objectsCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    objectPrefix,
		Recursive: true,
	})

	for object := range objectsCh {
		if object.Err != nil {
			return nil, types.Wrap(types.ErrStorage, object.Err)
		}
		name := strings.TrimPrefix(object.Key, objectPrefix)
		if !ValidName(name) {
			continue
		}
		blobs = append(blobs, Blob{
			Name:       name,
			Path:       PathFor(name),
			Size:       object.Size,
			ModifiedAt: object.LastModified,
		})
	}

	return blobs, nil
}

func (s *MinioStore) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: blob %q", types.ErrNotFound, name)
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, objectPrefix+name, minio.RemoveObjectOptions{}); err != nil {
		return types.Wrap(types.ErrStorage, err)
	}
	return nil
}
