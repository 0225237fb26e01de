package gcp

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
)

// localBucket stores objects on disk. Keys map to paths under dir and are
// served by the HTTP layer at /uploads/<key>.
type localBucket struct {
	dir           string
	publicBaseURL string
}

func newLocalBucket(dir, publicBaseURL string) (*localBucket, error) {
	if strings.TrimSpace(dir) == "" {
		dir = defaultLocalStorageDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve local storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage dir: %w", err)
	}
	return &localBucket{dir: abs, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (b *localBucket) pathFor(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	p := filepath.Join(b.dir, clean)
	if !strings.HasPrefix(p, b.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

func (b *localBucket) UploadFile(dbc dbctx.Context, key string, file io.Reader, _ string) error {
	p, err := b.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	if _, err := io.Copy(f, readerWithContext{ctx: dbc, r: file}); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return fmt.Errorf("write object file: %w", err)
	}
	return f.Close()
}

func (b *localBucket) DeleteFile(_ dbctx.Context, key string) error {
	p, err := b.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete object file: %w", err)
	}
	return nil
}

func (b *localBucket) GetPublicURL(key string) string {
	return b.publicBaseURL + "/uploads/" + escapeKeyPath(strings.TrimLeft(key, "/"))
}

func (b *localBucket) Mode() ObjectStorageMode { return ObjectStorageModeLocal }

func (b *localBucket) LocalDir() string { return b.dir }

func (b *localBucket) Close() error { return nil }

// readerWithContext stops copying once the request context is done.
type readerWithContext struct {
	ctx dbctx.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if r.ctx.Ctx != nil {
		if err := r.ctx.Ctx.Err(); err != nil {
			return 0, err
		}
	}
	return r.r.Read(p)
}
