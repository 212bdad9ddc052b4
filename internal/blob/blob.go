package blob

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotImage    = errors.New("only image uploads are allowed")
	ErrInvalidPath = errors.New("invalid path")
	ErrMissingURL  = errors.New("missing url")
)

// Store keeps uploaded images and hands back the URL they are served from.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
	// Delete removes the blob behind url. URLs this store did not issue are
	// ignored.
	Delete(ctx context.Context, url string) error
}

var safeExtension = regexp.MustCompile(`^[a-z0-9.]+$`)

// IsImage reports whether contentType names an image media type.
func IsImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// objectName returns a random name that keeps the upload's extension when it
// is made of safe characters only.
func objectName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if !safeExtension.MatchString(ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// NormalizeBase turns "uploads/" or "/uploads/" into "/uploads". Absolute
// URLs only lose their trailing slash.
func NormalizeBase(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.Contains(base, "://") {
		return base
	}
	return "/" + strings.TrimLeft(base, "/")
}

func joinURL(base, name string) string {
	if strings.Contains(base, "://") {
		return base + "/" + name
	}
	return collapseSlashes(base + "/" + name)
}

func collapseSlashes(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// relativeKey strips base from raw. ok is false when raw does not live under
// base.
func relativeKey(base, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(base, "://") {
		if !strings.HasPrefix(raw, base) {
			return "", false
		}
		return strings.TrimLeft(strings.TrimPrefix(raw, base), "/"), true
	}
	pathname := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.Path != "" {
		pathname = parsed.Path
	}
	if !strings.HasPrefix(pathname, base) {
		return "", false
	}
	return strings.TrimLeft(strings.TrimPrefix(pathname, base), "/"), true
}

// ContentTypeFor maps an image extension to its media type.
func ContentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
