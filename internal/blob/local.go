package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps uploads in a directory and serves them under a URL base.
type LocalStore struct {
	root string
	base string
}

func NewLocalStore(root, publicBase string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	return &LocalStore{root: abs, base: NormalizeBase(publicBase)}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Base() string { return s.base }

func (s *LocalStore) Put(_ context.Context, filename, contentType string, r io.Reader, _ int64) (string, error) {
	if !IsImage(contentType) {
		return "", ErrNotImage
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := objectName(filename)
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return joinURL(s.base, name), nil
}

func (s *LocalStore) Delete(_ context.Context, rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrMissingURL
	}
	rel, ok := relativeKey(s.base, rawURL)
	if !ok {
		return nil
	}
	target, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// resolve maps rel onto a path inside root.
func (s *LocalStore) resolve(rel string) (string, error) {
	if rel == "" {
		return "", ErrInvalidPath
	}
	target := filepath.Join(s.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, s.root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return target, nil
}

// ServeHTTP serves the file named by the request path relative to the
// mount point. Mount it with http.StripPrefix.
func (s *LocalStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimLeft(r.URL.Path, "/")
	target, err := s.resolve(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data, err := os.ReadFile(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", ContentTypeFor(filepath.Ext(target)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Upload-Base", s.base)
	_, _ = w.Write(data)
}
