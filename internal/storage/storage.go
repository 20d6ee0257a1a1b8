// Package storage keeps uploaded files in one bucket per partition. The
// bucket is looked up from the caller's tenant scope on every operation.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/suteetoe/tenantstarter/internal/policy"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

// ErrNotFound means the object or bucket does not exist
var ErrNotFound = errors.New("object not found")

// Backend stores objects in named buckets
type Backend interface {
	// EnsureBucket creates the bucket if needed. publicMedia grants anonymous
	// read on the media location.
	EnsureBucket(ctx context.Context, bucket string, publicMedia bool) error
	// DeleteBucket removes the bucket and every object in it
	DeleteBucket(ctx context.Context, bucket string) error
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Location is a key prefix inside a tenant bucket
type Location string

const (
	LocationMedia   Location = "media"
	LocationPrivate Location = "private"
)

// TenantStorage is a Backend bound to the current tenant
type TenantStorage struct {
	backend  Backend
	location Location
}

// NewTenantStorage stores objects under location in the current tenant's bucket
func NewTenantStorage(backend Backend, location Location) *TenantStorage {
	return &TenantStorage{backend: backend, location: location}
}

func (s *TenantStorage) bucket(ctx context.Context) (string, error) {
	t, err := tenancy.MustCurrent(ctx)
	if err != nil {
		return "", err
	}
	return policy.BucketFor(t), nil
}

// Save stores r under a fresh name keeping the extension of filename, and
// returns the object key. Existing objects are never overwritten.
func (s *TenantStorage) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	bucket, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}
	key := string(s.location) + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if err := s.backend.Put(ctx, bucket, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Open reads an object saved by Save
func (s *TenantStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket, err := s.bucket(ctx)
	if err != nil {
		return nil, err
	}
	if !s.owns(key) {
		return nil, ErrNotFound
	}
	return s.backend.Get(ctx, bucket, key)
}

// Delete removes an object saved by Save
func (s *TenantStorage) Delete(ctx context.Context, key string) error {
	bucket, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if !s.owns(key) {
		return ErrNotFound
	}
	return s.backend.Delete(ctx, bucket, key)
}

func (s *TenantStorage) owns(key string) bool {
	prefix := string(s.location) + "/"
	return strings.HasPrefix(key, prefix) && path.Clean(key) == key && !strings.Contains(key, "..")
}
