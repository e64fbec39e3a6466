package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore is an ObjectStore backed by MinIO or any S3-compatible server.
type MinioStore struct {
	client *minio.Client
	cfg    Config

	mu      sync.Mutex
	ensured bool
}

var _ ObjectStore = (*MinioStore)(nil)

// NewMinioStore creates a client for cfg. No request is made until first
// use.
func NewMinioStore(cfg Config) (*MinioStore, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioStore{client: client, cfg: cfg}, nil
}

// EnsurePublic creates the bucket when missing and (re)applies the
// public-read policy.
func (m *MinioStore) EnsurePublic(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", m.cfg.Bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", m.cfg.Bucket, err)
		}
	}
	if err := m.client.SetBucketPolicy(ctx, m.cfg.Bucket, PublicReadPolicy(m.cfg.Bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}

	m.mu.Lock()
	m.ensured = true
	m.mu.Unlock()
	return nil
}

// ensureOnce runs EnsurePublic until it first succeeds.
func (m *MinioStore) ensureOnce(ctx context.Context) error {
	m.mu.Lock()
	done := m.ensured
	m.mu.Unlock()
	if done {
		return nil
	}
	return m.EnsurePublic(ctx)
}

// Put uploads an object and returns its public URL.
func (m *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if err := m.ensureOnce(ctx); err != nil {
		return "", err
	}
	_, err := m.client.PutObject(ctx, m.cfg.Bucket, name, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: CacheControl,
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", name, err)
	}
	return m.cfg.ObjectURL(name), nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, name string) error {
	if err := m.client.RemoveObject(ctx, m.cfg.Bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", name, err)
	}
	return nil
}

// ObjectName maps a public URL back to an object name.
func (m *MinioStore) ObjectName(rawURL string) (string, error) {
	return m.cfg.ObjectName(rawURL)
}
