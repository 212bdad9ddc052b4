package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, ApplyMigrations(ctx, db, DialectSQLite))
	s := NewSQLStore(db, DialectSQLite)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(v string) *string { return &v }

func TestParseDatabaseURL(t *testing.T) {
	cases := []struct {
		url     string
		dialect Dialect
		dsn     string
	}{
		{"postgres://u:p@localhost:5432/pages", DialectPostgres, "postgres://u:p@localhost:5432/pages"},
		{"postgresql://localhost/pages", DialectPostgres, "postgresql://localhost/pages"},
		{"sqlite://data/pages.db", DialectSQLite, "data/pages.db"},
		{"sqlite:pages.db", DialectSQLite, "pages.db"},
		{"file:pages.db?cache=shared", DialectSQLite, "file:pages.db?cache=shared"},
		{":memory:", DialectSQLite, ":memory:"},
	}
	for _, tc := range cases {
		dialect, dsn, err := ParseDatabaseURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.dialect, dialect, tc.url)
		assert.Equal(t, tc.dsn, dsn, tc.url)
	}

	_, _, err := ParseDatabaseURL("mysql://localhost/pages")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `UPDATE proposals SET slug = ?, status = ? WHERE id = ?`
	assert.Equal(t, `UPDATE proposals SET slug = $1, status = $2 WHERE id = $3`, DialectPostgres.rebind(q))
	assert.Equal(t, q, DialectSQLite.rebind(q))
}

func TestProposalCRUD(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	created, err := s.CreateProposal(ctx, Proposal{
		ID:         "p1",
		Slug:       "acme",
		Status:     "DRAFT",
		ShowVision: true,
		ShowGoals:  true,
		ExpiresAt:  &expires,
		DataEn:     strPtr(`{"hero":{}}`),
	})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetProposal(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)
	assert.True(t, got.ShowVision)
	assert.False(t, got.ShowPricing)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt))
	require.NotNil(t, got.DataEn)
	assert.Equal(t, `{"hero":{}}`, *got.DataEn)
	assert.Nil(t, got.DataAr)

	got.Slug = "acme-2"
	got.ExpiresAt = nil
	got.UpdatedAt = time.Time{}
	_, err = s.UpdateProposal(ctx, got)
	require.NoError(t, err)

	bySlug, err := s.GetProposalBySlug(ctx, "acme-2")
	require.NoError(t, err)
	assert.Nil(t, bySlug.ExpiresAt)

	_, err = s.GetProposalBySlug(ctx, "acme")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteProposal(ctx, "p1"))
	assert.ErrorIs(t, s.DeleteProposal(ctx, "p1"), ErrNotFound)
	_, err = s.GetProposal(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.UpdateProposal(ctx, Proposal{ID: "missing", Slug: "x", Status: "DRAFT"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateProgressPage(ctx, ProgressPage{ID: "missing", Slug: "x", Status: "DRAFT"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateMetaPage(ctx, MetaPage{ID: "missing", Slug: "x", Status: "DRAFT"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateSlugIsSlugTaken(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.CreateMetaPage(ctx, MetaPage{ID: "m1", Slug: "shared", Status: "DRAFT"})
	require.NoError(t, err)
	_, err = s.CreateMetaPage(ctx, MetaPage{ID: "m2", Slug: "shared", Status: "DRAFT"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	// Slugs are unique per page kind only.
	_, err = s.CreateProgressPage(ctx, ProgressPage{ID: "g1", Slug: "shared", Status: "DRAFT"})
	assert.NoError(t, err)

	owner, err := s.MetaSlugOwner(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "m1", owner)

	owner, err = s.MetaSlugOwner(ctx, "free")
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestListOrdersByMostRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		_, err := s.CreateProgressPage(ctx, ProgressPage{
			ID:        id,
			Slug:      "slug-" + id,
			Status:    "DRAFT",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	page, err := s.GetProgressPage(ctx, "a")
	require.NoError(t, err)
	page.UpdatedAt = base.Add(10 * time.Hour)
	page.AccessPasswordHash = strPtr("digest")
	_, err = s.UpdateProgressPage(ctx, page)
	require.NoError(t, err)

	items, err := s.ListProgressPages(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{items[0].ID, items[1].ID, items[2].ID})
	require.NotNil(t, items[0].AccessPasswordHash)
	assert.Equal(t, "digest", *items[0].AccessPasswordHash)
}

func TestRevertExpiredProposals(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	seed := []Proposal{
		{ID: "expired", Slug: "expired", Status: "PUBLISHED", ExpiresAt: &past},
		{ID: "boundary", Slug: "boundary", Status: "PUBLISHED", ExpiresAt: &now},
		{ID: "live", Slug: "live", Status: "PUBLISHED", ExpiresAt: &future},
		{ID: "open", Slug: "open", Status: "PUBLISHED"},
		{ID: "draft", Slug: "draft", Status: "DRAFT", ExpiresAt: &past},
	}
	require.NoError(t, s.ReplaceProposals(ctx, seed))

	reverted, err := s.RevertExpiredProposal(ctx, "live", now)
	require.NoError(t, err)
	assert.False(t, reverted)

	reverted, err = s.RevertExpiredProposal(ctx, "expired", now)
	require.NoError(t, err)
	assert.True(t, reverted)

	n, err := s.RevertExpiredProposals(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	statuses := map[string]string{}
	items, err := s.ListProposals(ctx)
	require.NoError(t, err)
	for _, p := range items {
		statuses[p.ID] = p.Status
	}
	assert.Equal(t, map[string]string{
		"expired":  "DRAFT",
		"boundary": "DRAFT",
		"live":     "PUBLISHED",
		"open":     "PUBLISHED",
		"draft":    "DRAFT",
	}, statuses)

	got, err := s.GetProposal(ctx, "expired")
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(now))
}

func TestReplaceProposalsClearsExistingRows(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.CreateProposal(ctx, Proposal{ID: "old", Slug: "old", Status: "DRAFT"})
	require.NoError(t, err)
	require.NoError(t, s.ReplaceProposals(ctx, []Proposal{{ID: "new", Slug: "new", Status: "PUBLISHED"}}))

	items, err := s.ListProposals(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].ID)
}

func TestNullTimeScan(t *testing.T) {
	var n nullTime
	require.NoError(t, n.Scan("2025-01-02T03:04:05.000000000Z"))
	assert.True(t, n.Valid)
	assert.Equal(t, 2025, n.Time.Year())

	require.NoError(t, n.Scan(nil))
	assert.Nil(t, n.ptr())

	assert.Error(t, n.Scan(42))
}
