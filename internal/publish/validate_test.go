package publish

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/document"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func lookupFrom(owners map[string]string) SlugLookup {
	return func(_ context.Context, slug string) (string, error) {
		return owners[slug], nil
	}
}

func TestValidateSlug(t *testing.T) {
	valid := []string{"acme", "acme-2025", "a", strings.Repeat("a", MaxSlugLength)}
	for _, slug := range valid {
		assert.NoError(t, ValidateSlug(slug), slug)
	}

	invalid := []string{"", "Acme", "acme corp", "acme_corp", "acme/../x", strings.Repeat("a", MaxSlugLength+1), "شركة"}
	for _, slug := range invalid {
		err := ValidateSlug(slug)
		require.Error(t, err, slug)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), slug)
	}
}

func TestNormalizeSlug(t *testing.T) {
	assert.Equal(t, "acme-co", NormalizeSlug("  Acme-Co \n"))
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("PUBLISHED")
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, status)

	_, err = ParseStatus("published")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCheckSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	lookup := lookupFrom(map[string]string{"acme": "rec-a", "beta": "rec-b"})

	err := Check(ctx, Request{Kind: document.KindProposal, Slug: "acme", Status: StatusDraft}, lookup, now)
	assert.ErrorIs(t, err, ErrSlugInUse, "create with taken slug")

	err = Check(ctx, Request{Kind: document.KindProposal, ID: "rec-a", Slug: "beta", Status: StatusDraft}, lookup, now)
	assert.ErrorIs(t, err, ErrSlugInUse, "update onto another record's slug")

	err = Check(ctx, Request{Kind: document.KindProposal, ID: "rec-a", Slug: "acme", Status: StatusDraft}, lookup, now)
	assert.NoError(t, err, "update keeping own slug")
}

func TestCheckSlugLookupError(t *testing.T) {
	boom := errors.New("db down")
	lookup := func(context.Context, string) (string, error) { return "", boom }
	err := Check(context.Background(), Request{Kind: document.KindMeta, Slug: "acme"}, lookup, now)
	assert.ErrorIs(t, err, boom)
}

func TestCheckProposalReadiness(t *testing.T) {
	ctx := context.Background()
	empty := document.EmptyProposal()
	titled := document.NormalizeProposal(`{"hero":{"title":"X"}}`)

	req := Request{Kind: document.KindProposal, Slug: "acme", Status: StatusPublished, DataEn: empty, DataAr: empty}
	assert.ErrorIs(t, Check(ctx, req, nil, now), ErrPublishNeedsContent)

	req.Status = StatusDraft
	assert.NoError(t, Check(ctx, req, nil, now), "drafts skip readiness")

	req.Status = StatusPublished
	req.DataEn = titled
	assert.NoError(t, Check(ctx, req, nil, now))

	past := now.Add(-time.Second)
	req.ExpiresAt = &past
	assert.ErrorIs(t, Check(ctx, req, nil, now), ErrExpiryInPast)

	exact := now
	req.ExpiresAt = &exact
	assert.ErrorIs(t, Check(ctx, req, nil, now), ErrExpiryInPast)

	future := now.Add(time.Hour)
	req.ExpiresAt = &future
	assert.NoError(t, Check(ctx, req, nil, now))
}

func TestCheckGatedKindsNeedPassword(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []document.Kind{document.KindProgress, document.KindMeta} {
		named, err := document.Normalize(kind, `{"client":{"name":"Acme"}}`)
		require.NoError(t, err)

		req := Request{Kind: kind, Slug: "acme", Status: StatusPublished, DataAr: named}
		assert.ErrorIs(t, Check(ctx, req, nil, now), ErrPublishNeedsPassword, kind)

		req.PasswordHash = "stored"
		assert.NoError(t, Check(ctx, req, nil, now), kind)

		past := now.Add(-time.Hour)
		req.ExpiresAt = &past
		assert.NoError(t, Check(ctx, req, nil, now), "expiry only applies to proposals")
	}
}

func TestEffectiveStatus(t *testing.T) {
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.Equal(t, StatusDraft, EffectiveStatus(StatusPublished, &past, now))
	assert.Equal(t, StatusPublished, EffectiveStatus(StatusPublished, &future, now))
	assert.Equal(t, StatusPublished, EffectiveStatus(StatusPublished, nil, now))
	assert.Equal(t, StatusDraft, EffectiveStatus(StatusDraft, &future, now))
	assert.False(t, Expired(StatusDraft, &past, now))
}

func TestParseExpiry(t *testing.T) {
	got, err := ParseExpiry("", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseExpiry("2025-07-01T10:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC), *got)

	got, err = ParseExpiry("2025-07-01T10:30:00+02:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC), *got)

	got, err = ParseExpiry("2025-07-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *got)

	_, err = ParseExpiry("next tuesday", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCopySlug(t *testing.T) {
	ctx := context.Background()
	taken := map[string]bool{"acme": true, "acme-copy": true, "acme-copy-2": true}
	exists := func(_ context.Context, slug string) (bool, error) { return taken[slug], nil }

	slug, err := CopySlug(ctx, "acme", exists)
	require.NoError(t, err)
	assert.Equal(t, "acme-copy-3", slug)

	slug, err = CopySlug(ctx, "beta", exists)
	require.NoError(t, err)
	assert.Equal(t, "beta-copy", slug)

	taken = map[string]bool{"acme-copy": true}
	slug, err = CopySlug(ctx, "acme", exists)
	require.NoError(t, err)
	assert.Equal(t, "acme-copy-2", slug)
}

func TestCopySlugStaysWithinMaxLength(t *testing.T) {
	ctx := context.Background()
	base := strings.Repeat("a", MaxSlugLength)
	taken := map[string]bool{}
	exists := func(_ context.Context, slug string) (bool, error) { return taken[slug], nil }

	slug, err := CopySlug(ctx, base, exists)
	require.NoError(t, err)
	assert.Len(t, slug, MaxSlugLength)
	assert.Equal(t, strings.Repeat("a", MaxSlugLength-len("-copy"))+"-copy", slug)
	assert.NoError(t, ValidateSlug(slug))

	taken[slug] = true
	slug, err = CopySlug(ctx, base, exists)
	require.NoError(t, err)
	assert.Len(t, slug, MaxSlugLength)
	assert.True(t, strings.HasSuffix(slug, "-copy-2"))
	assert.NoError(t, ValidateSlug(slug))

	// A cut that lands on a hyphen does not leave a double hyphen.
	hyphenated := strings.Repeat("a", MaxSlugLength-6) + "-bbbbb"
	slug, err = CopySlug(ctx, hyphenated, exists)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", MaxSlugLength-6)+"-copy", slug)
}
