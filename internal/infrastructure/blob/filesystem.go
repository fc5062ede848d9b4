package blob

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// Filesystem writes artifacts under a directory served at PublicBaseURL.
// References never expire; ttl is ignored.
type Filesystem struct {
	dir           string
	publicBaseURL string
}

var _ ports.BlobStore = (*Filesystem)(nil)

// NewFilesystem creates dir when missing.
func NewFilesystem(dir, publicBaseURL string) (*Filesystem, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: artifacts directory is empty", domain.ErrInvalidConfig)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", domain.ErrInvalidConfig, dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrStorage, abs, err)
	}
	return &Filesystem{dir: abs, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

// Put writes body to dir/key. Keys may not escape dir.
func (f *Filesystem) Put(ctx context.Context, key string, body []byte, _ ports.PutOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	clean := path.Clean("/" + key)[1:]
	if clean == "" {
		return "", fmt.Errorf("%w: empty key %q", domain.ErrStorage, key)
	}

	target := filepath.Join(f.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: create dir for %s: %w", domain.ErrStorage, clean, err)
	}

	tmp := target + ".part"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrStorage, clean, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: rename %s: %w", domain.ErrStorage, clean, err)
	}
	return clean, nil
}

// SignedURL returns the public location of handle.
func (f *Filesystem) SignedURL(_ context.Context, handle string, _ time.Duration) (string, error) {
	if f.publicBaseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(f.dir, filepath.FromSlash(handle)))}).String(), nil
	}

	segments := strings.Split(handle, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return f.publicBaseURL + "/" + strings.Join(segments, "/"), nil
}
