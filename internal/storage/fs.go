// Package storage is the object store for post images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/oggyb/picfeed/internal/config"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("object exceeds size limit")

// FileStore keeps objects under Dir and hands out URLs below PublicURL.
// Keys have the form <owner>/<uuid><ext>.
type FileStore struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

func NewFileStore(cfg *config.Config) (*FileStore, error) {
	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FileStore{
		Dir:       cfg.Storage.Dir,
		PublicURL: strings.TrimRight(cfg.Storage.PublicURL, "/"),
		MaxBytes:  cfg.Storage.MaxBytes,
	}, nil
}

// Put writes body and returns its public URL. ext includes the dot.
func (s *FileStore) Put(ctx context.Context, owner, ext string, body io.Reader) (string, error) {
	if owner == "" || strings.ContainsAny(owner, `/\.`) {
		return "", fmt.Errorf("invalid owner %q", owner)
	}
	if ext != "" && (!strings.HasPrefix(ext, ".") || strings.ContainsAny(ext[1:], `/\.`)) {
		return "", fmt.Errorf("invalid extension %q", ext)
	}

	key := path.Join(owner, uuid.NewString()+strings.ToLower(ext))
	dst := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	n, err := io.Copy(f, io.LimitReader(&ctxReader{ctx: ctx, r: body}, s.MaxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if n > s.MaxBytes {
		return "", ErrTooLarge
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", err
	}
	return s.PublicURL + "/" + key, nil
}

// Remove deletes the object behind url. URLs outside this store and
// missing objects are ignored.
func (s *FileStore) Remove(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.PublicURL+"/")
	if !ok || key == "" || strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
