package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var bucketPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Local keeps each bucket as a directory under Root
type Local struct {
	Root string
}

// NewLocal creates the root directory if needed
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{Root: root}, nil
}

func (l *Local) bucketDir(bucket string) (string, error) {
	if !bucketPattern.MatchString(bucket) {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}
	return filepath.Join(l.Root, bucket), nil
}

func (l *Local) objectPath(bucket, key string) (string, error) {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, filepath.FromSlash(key))
	if !strings.HasPrefix(p, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("object key %q escapes bucket", key)
	}
	return p, nil
}

func (l *Local) EnsureBucket(_ context.Context, bucket string, _ bool) error {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func (l *Local) DeleteBucket(_ context.Context, bucket string) error {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func (l *Local) Put(_ context.Context, bucket, key string, r io.Reader, _ int64, _ string) error {
	p, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return f.Close()
}

func (l *Local) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	p, err := l.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *Local) Delete(_ context.Context, bucket, key string) error {
	p, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
