// Package storage stores uploaded images in S3-compatible object storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrNotConfigured is returned by handlers when no object store is set up.
	ErrNotConfigured = errors.New("object storage is not configured")
	// ErrForeignObject is returned for URLs outside the configured bucket.
	ErrForeignObject = errors.New("object does not belong to this bucket")
)

// CacheControl is sent with every uploaded object. Names are unique per
// upload, so objects never change once written.
const CacheControl = "public, max-age=31536000"

// ObjectStore is the object storage used by the upload handlers.
type ObjectStore interface {
	// Put writes an object and returns its public URL.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
	// EnsurePublic creates the bucket if needed and applies the public-read
	// policy.
	EnsurePublic(ctx context.Context) error
	// ObjectName maps a public URL back to an object name in this bucket.
	ObjectName(rawURL string) (string, error)
}

// Config describes the object storage endpoint.
type Config struct {
	Endpoint  string // host[:port]
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the scheme://endpoint prefix of returned URLs,
	// e.g. when a CDN fronts the bucket.
	PublicURL string
}

// Enabled reports whether enough is configured to connect.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// BaseURL is the prefix of public object URLs, without trailing slash.
func (c Config) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + c.Endpoint
}

// ObjectURL returns the public URL of name.
func (c Config) ObjectURL(name string) string {
	return c.BaseURL() + "/" + c.Bucket + "/" + name
}

// ObjectName extracts the object name from a URL produced by ObjectURL.
// The first path segment after the base path must be the bucket.
func (c Config) ObjectName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("invalid object url: %q", rawURL)
	}
	path := u.Path
	if base, err := url.Parse(c.BaseURL()); err == nil {
		path = strings.TrimPrefix(path, strings.TrimRight(base.Path, "/"))
	}
	path = strings.TrimPrefix(path, "/")

	bucket, name, ok := strings.Cut(path, "/")
	if !ok || bucket != c.Bucket {
		return "", ErrForeignObject
	}
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid object name in url: %q", rawURL)
	}
	return name, nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy is an S3 bucket policy allowing anonymous GetObject.
func PublicReadPolicy(bucket string) string {
	p := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}
	b, _ := json.Marshal(p)
	return string(b)
}
