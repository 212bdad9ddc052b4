package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pagebuilder/internal/blob"
)

// UploadImage stores an uploaded image and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	if s.blobs == nil {
		return "", errors.New("uploads are not configured")
	}
	if !blob.IsImage(contentType) {
		return "", invalidUpload("Only image uploads are allowed.")
	}
	url, err := s.blobs.Put(ctx, filename, contentType, r, size)
	if err != nil {
		if errors.Is(err, blob.ErrNotImage) {
			return "", invalidUpload("Only image uploads are allowed.")
		}
		return "", err
	}
	s.logger.Info("image uploaded", zap.String("url", url), zap.Int64("size", size))
	return url, nil
}

// DeleteImage removes a previously uploaded image. URLs outside the upload
// base are ignored.
func (s *Service) DeleteImage(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return invalidUpload("Missing url.")
	}
	if s.blobs == nil {
		return nil
	}
	err := s.blobs.Delete(ctx, url)
	switch {
	case errors.Is(err, blob.ErrMissingURL):
		return invalidUpload("Missing url.")
	case errors.Is(err, blob.ErrInvalidPath):
		return invalidUpload("Invalid path.")
	}
	return err
}

func invalidUpload(message string) *DomainError {
	return domainError(http.StatusBadRequest, CodeInvalidUpload, message, nil)
}
