// Package blob stores layout background images on the local filesystem and
// serves them under a public URL.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrPermission marks uploads and removals refused by the bucket's access
	// rules. Callers surface it as needing administrator action.
	ErrPermission = errors.New("permission denied")
	ErrExists     = errors.New("blob: object already exists")
	ErrBadKey     = errors.New("blob: invalid object key")
	ErrBadURL     = errors.New("blob: cannot resolve public url")
)

// LayoutsBucket holds division floor-plan images.
const LayoutsBucket = "layouts"

type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// FS is a bucket rooted at <dataDir>/blobs/<bucket>.
type FS struct {
	Bucket   string
	Root     string
	BaseURL  string
	ReadOnly bool
}

func NewFS(dataDir, bucket, baseURL string) (*FS, error) {
	root := filepath.Join(dataDir, "blobs", bucket)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &FS{Bucket: bucket, Root: root, BaseURL: baseURL}, nil
}

func (f *FS) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrBadKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrBadKey
	}
	return filepath.Join(f.Root, filepath.FromSlash(clean)), nil
}

func permission(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}
	return err
}

// Upload writes r under key. An existing object is never overwritten.
func (f *FS) Upload(ctx context.Context, key string, r io.Reader) error {
	if f.ReadOnly {
		return fmt.Errorf("%w: bucket %s is read-only", ErrPermission, f.Bucket)
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return permission(fmt.Errorf("create object dir: %w", err))
	}
	out, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, key)
		}
		return permission(fmt.Errorf("create object: %w", err))
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(p)
		return fmt.Errorf("write object: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(p)
		return fmt.Errorf("close object: %w", err)
	}
	return nil
}

// PublicURL is BASE_URL/blobs/<bucket>/<key>.
func (f *FS) PublicURL(key string) (string, error) {
	if _, err := f.path(key); err != nil {
		return "", err
	}
	base, err := url.Parse(f.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: base url %q", ErrBadURL, f.BaseURL)
	}
	return base.JoinPath("blobs", f.Bucket, key).String(), nil
}

// KeyFromURL recovers the object key from a public URL of this bucket.
func (f *FS) KeyFromURL(u string) (string, bool) {
	marker := "/" + f.Bucket + "/"
	i := strings.LastIndex(u, marker)
	if i < 0 {
		return "", false
	}
	key := u[i+len(marker):]
	if q := strings.IndexAny(key, "?#"); q >= 0 {
		key = key[:q]
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if _, err := f.path(key); err != nil {
		return "", false
	}
	return key, true
}

// Remove deletes the given keys. Missing objects are not an error.
func (f *FS) Remove(ctx context.Context, keys ...string) error {
	if f.ReadOnly {
		return fmt.Errorf("%w: bucket %s is read-only", ErrPermission, f.Bucket)
	}
	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := f.path(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, permission(err))
		}
	}
	return errors.Join(errs...)
}

// List returns every object in the bucket.
func (f *FS) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	err := filepath.WalkDir(f.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(f.Root, p)
		if err != nil {
			return nil
		}
		objects = append(objects, Object{
			Key:     filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", f.Bucket, err)
	}
	return objects, nil
}
