package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pagebuilder/internal/auth"
	"pagebuilder/internal/blob"
	"pagebuilder/internal/config"
	"pagebuilder/internal/store"
)

const (
	testSecret   = "test-session-secret"
	testUser     = "admin"
	testPassword = "hunter2"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *Service
	store *store.SQLStore
	blobs *blob.LocalStore
	clock *testClock
}

func testConfig() config.Config {
	return config.Config{
		SessionSecret:    testSecret,
		AdminUser:        testUser,
		AdminPass:        testPassword,
		AppEnv:           "test",
		TimeZone:         "UTC",
		UploadPublicBase: "/uploads",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, testConfig())
}

func newFixtureWithConfig(t *testing.T, cfg config.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.ApplyMigrations(ctx, db, store.DialectSQLite))
	st := store.NewSQLStore(db, store.DialectSQLite)
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blob.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	svc, err := New(cfg, Deps{Store: st, Blobs: blobs})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	svc.setClock(clock.Now)
	return &fixture{svc: svc, store: st, blobs: blobs, clock: clock}
}

func strPtr(v string) *string { return &v }

const (
	proposalEn = `{"hero":{"title":"Growth plan"},"visionHtml":"<p>vision</p>","goals":["grow"],"notesHtml":"<p>notes</p>"}`
	proposalAr = `{"hero":{"title":"خطة النمو"}}`
	progressEn = `{"client":{"name":"Acme"},"workPlan":{"points":[{"text":"Kickoff","done":true},{"text":"Launch","done":false},{"text":"  "}]},"calendar":[{"date":"2025-03-02","title":"Second"},{"date":"","title":"Undated"},{"date":"2025-03-01","title":"First"}],"payments":{"agreedPrice":"$1,000","entries":[{"amount":"250","description":"Deposit"},{"amount":"","description":""}],"metaAdsBalance":"90"}}`
	metaEn     = `{"client":{"name":"Acme"},"walletBalance":"100","results":{"reach":"1200","amountSpent":"40","mediaUrl":"/uploads/old.png"},"plan":{"title":"Next","points":["More reels"]}}`
)

// grantCookies returns the cookies the unlock handler sets for slug.
func grantCookies(t *testing.T, scope *auth.Scope, slug string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := scope.Grant(rec, slug)
	require.NoError(t, err)
	return rec.Result().Cookies()
}

// visitor checks access for a request carrying cookies against scope.
func visitor(scope *auth.Scope, cookies ...*http.Cookie) Access {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return requestAccess(scope, r)
}
