// Package publish enforces the rules a page must satisfy before it is saved
// or made public.
package publish

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pagebuilder/internal/document"
)

const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"

	MaxSlugLength = 80
)

// ValidationError is a rule failure meant to be shown to the operator.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches validation errors by message so callers can test against the
// sentinels below.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}
	return e.Message == other.Message
}

var (
	ErrSlugInUse            = &ValidationError{Field: "slug", Message: "slug already in use"}
	ErrPublishNeedsContent  = &ValidationError{Field: "data", Message: "publish requires localized content"}
	ErrPublishNeedsPassword = &ValidationError{Field: "password", Message: "publish requires a password"}
	ErrExpiryInPast         = &ValidationError{Field: "expiresAt", Message: "expiry must be in the future"}
	ErrInvalidStatus        = &ValidationError{Field: "status", Message: "status must be DRAFT or PUBLISHED"}
	ErrInvalidDate          = &ValidationError{Field: "expiresAt", Message: "invalid expiry date"}
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var slugRules = []validation.Rule{
	validation.Required.Error("slug is required"),
	validation.RuneLength(1, MaxSlugLength).Error("slug is too long"),
	validation.Match(slugPattern).Error("use lowercase letters, numbers, and hyphens only"),
}

// NormalizeSlug trims and lowercases operator input.
func NormalizeSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateSlug checks the format of an already normalized slug.
func ValidateSlug(slug string) error {
	if err := validation.Validate(slug, slugRules...); err != nil {
		return &ValidationError{Field: "slug", Message: err.Error()}
	}
	return nil
}

// ParseStatus accepts DRAFT or PUBLISHED.
func ParseStatus(raw string) (string, error) {
	status := strings.TrimSpace(raw)
	err := validation.Validate(status,
		validation.Required,
		validation.In(StatusDraft, StatusPublished),
	)
	if err != nil {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// SlugLookup returns the id of the record of one kind holding slug, or ""
// when the slug is free.
type SlugLookup func(ctx context.Context, slug string) (string, error)

// Request describes a pending save.
type Request struct {
	Kind   document.Kind
	ID     string // empty on create
	Slug   string
	Status string
	DataEn document.Document
	DataAr document.Document
	// PasswordHash is the hash the record will hold after the save, either
	// freshly set or retained. Only consulted for gated kinds.
	PasswordHash string
	// ExpiresAt only applies to proposals.
	ExpiresAt *time.Time
}

// Gated reports whether pages of kind are password protected.
func Gated(kind document.Kind) bool {
	return kind == document.KindProgress || kind == document.KindMeta
}

// Check applies slug rules to every save and readiness rules to saves that
// publish.
func Check(ctx context.Context, req Request, lookup SlugLookup, now time.Time) error {
	if err := ValidateSlug(req.Slug); err != nil {
		return err
	}
	if lookup != nil {
		ownerID, err := lookup(ctx, req.Slug)
		if err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if ownerID != "" && ownerID != req.ID {
			return ErrSlugInUse
		}
	}

	if req.Status != StatusPublished {
		return nil
	}
	if !available(req.DataEn) && !available(req.DataAr) {
		return ErrPublishNeedsContent
	}
	if Gated(req.Kind) && req.PasswordHash == "" {
		return ErrPublishNeedsPassword
	}
	if req.Kind == document.KindProposal && req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return ErrExpiryInPast
	}
	return nil
}

func available(doc document.Document) bool {
	return doc != nil && doc.Available()
}

// Expired reports whether a published record is past its expiry.
func Expired(status string, expiresAt *time.Time, now time.Time) bool {
	return status == StatusPublished && expiresAt != nil && !expiresAt.After(now)
}

// EffectiveStatus is the status a record must be reported with at now.
func EffectiveStatus(status string, expiresAt *time.Time, now time.Time) string {
	if Expired(status, expiresAt, now) {
		return StatusDraft
	}
	return status
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseExpiry reads an optional expiry date from form input. Values without
// a zone are read in loc. Blank input means no expiry.
func ParseExpiry(raw string, loc *time.Location) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			utc := parsed.UTC()
			return &utc, nil
		}
	}
	return nil, ErrInvalidDate
}
