package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mevoq/site/backend"
)

// FileStorage implements backend.Storage on the local filesystem. Objects
// are written to <root>/<bucket>/<name> and served under <baseURL>/storage/.
type FileStorage struct {
	root    string
	baseURL string
}

var _ backend.Storage = (*FileStorage)(nil)

func NewFileStorage(root, baseURL string) *FileStorage {
	return &FileStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Root returns the directory objects are stored under.
func (s *FileStorage) Root() string {
	return s.root
}

// Upload writes r to bucket/name. Existing objects are never overwritten.
func (s *FileStorage) Upload(ctx context.Context, bucket, name string, r io.Reader, contentType string) error {
	if err := validName(bucket); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s/%s exists", backend.ErrConflict, bucket, name)
		}
		return err
	}
	if _, err := io.Copy(f, ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write object: %w", err)
	}
	return f.Close()
}

func (s *FileStorage) PublicURL(bucket, name string) string {
	return s.baseURL + "/storage/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || !fs.ValidPath(name) {
		return fmt.Errorf("%w: %q", backend.ErrInvalidName, name)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
