package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/docufold/docufold/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// ErrObjectExists is returned by Upload when overwrite is false and the path is taken.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound is returned by Download/Stat for missing paths.
	ErrObjectNotFound = errors.New("object not found")
)

// MinIOStore wraps the minio client for a single bucket. It is the object-store
// backend for document content blobs and image assets.
type MinIOStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewMinIOStore creates a new MinIO store and ensures the bucket exists.
func NewMinIOStore(cfg *config.StorageConfig) (*MinIOStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStore{client: mc, bucket: cfg.Bucket, publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/")}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Upload stores data under path. When overwrite is false an existing object at
// the same path is an error; MinIO itself always replaces, so the existence
// check happens first (racy, acceptable for this workload).
func (s *MinIOStore) Upload(ctx context.Context, path string, reader io.Reader, size int64, contentType string, overwrite bool) error {
	if !overwrite {
		if _, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{}); err == nil {
			return ErrObjectExists
		}
	}
	_, err := s.client.PutObject(ctx, s.bucket, path, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Download returns a ReadCloser for the stored object.
func (s *MinIOStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// perform a stat to ensure object exists
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return obj, nil
}

// Stat reports whether an object exists at path.
func (s *MinIOStore) Stat(ctx context.Context, path string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

// List returns all object paths under prefix (recursive).
func (s *MinIOStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		paths = append(paths, obj.Key)
	}
	return paths, nil
}

// Remove deletes the given paths, continuing past individual failures and
// returning them joined.
func (s *MinIOStore) Remove(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := s.client.RemoveObject(ctx, s.bucket, p, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// PublicURL returns the stable public address for an uploaded object:
// <base>/<bucket>/<path>, with each path segment percent-encoded.
func (s *MinIOStore) PublicURL(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + url.PathEscape(s.bucket) + "/" + strings.Join(segs, "/")
}

// GetPresignedURL returns a presigned GET URL valid for the given duration.
func (s *MinIOStore) GetPresignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, path, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
