package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/auth"
)

type httpFixture struct {
	*fixture
	handler http.Handler
}

func newHTTPFixture(t *testing.T) *httpFixture {
	f := newFixture(t)
	return &httpFixture{fixture: f, handler: NewHTTPServer(f.svc, "").Handler()}
}

func (h *httpFixture) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func (h *httpFixture) form(method, target string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req, cookies...)
}

func (h *httpFixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr := h.form(http.MethodPost, "/login", url.Values{"username": {testUser}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	c := findCookie(rr, auth.SessionCookie)
	require.NotNil(t, c)
	return c
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload), rr.Body.String())
	return payload
}

func TestDashboardRedirectsToLogin(t *testing.T) {
	h := newHTTPFixture(t)

	rr := h.do(httptest.NewRequest(http.MethodGet, "/dashboard/proposals?page=2", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/dashboard/proposals?page=2"), rr.Header().Get("Location"))

	bogus := &http.Cookie{Name: auth.SessionCookie, Value: "not-a-token"}
	rr = h.do(httptest.NewRequest(http.MethodGet, "/dashboard/meta", nil), bogus)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestLoginRedirectsOnlyToLocalPaths(t *testing.T) {
	h := newHTTPFixture(t)

	rr := h.form(http.MethodPost, "/login", url.Values{"username": {testUser}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, CodeInvalidCredentials, decodeJSON(t, rr)["code"])

	rr = h.form(http.MethodPost, "/login", url.Values{"username": {testUser}, "password": {testPassword}, "next": {"//evil.example.com"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, defaultAfterLogin, rr.Header().Get("Location"))

	rr = h.form(http.MethodPost, "/login", url.Values{"username": {testUser}, "password": {testPassword}, "next": {"/dashboard/meta"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard/meta", rr.Header().Get("Location"))

	c := findCookie(rr, auth.SessionCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                  defaultAfterLogin,
		"https://evil.test": defaultAfterLogin,
		"//evil.test":       defaultAfterLogin,
		`/\evil.test`:       defaultAfterLogin,
		"/dashboard/meta":   "/dashboard/meta",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHTTPFixture(t)
	session := h.login(t)

	rr := h.do(httptest.NewRequest(http.MethodGet, "/dashboard/session", nil), session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testUser, decodeJSON(t, rr)["username"])

	rr = h.do(httptest.NewRequest(http.MethodPost, "/logout", nil), session)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	cleared := findCookie(rr, auth.SessionCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rr = h.do(httptest.NewRequest(http.MethodGet, "/dashboard/session", nil), session)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestProposalRoutes(t *testing.T) {
	h := newHTTPFixture(t)
	session := h.login(t)

	rr := h.form(http.MethodPost, "/dashboard/proposals", url.Values{
		"slug":       {"acme"},
		"status":     {"PUBLISHED"},
		"dataEn":     {proposalEn},
		"showVision": {"on"},
		"showGoals":  {"off"},
	}, session)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeJSON(t, rr)
	id := created["id"].(string)
	flags := created["flags"].(map[string]any)
	assert.Equal(t, true, flags["showVision"])
	assert.Equal(t, false, flags["showGoals"])

	rr = h.form(http.MethodPost, "/dashboard/proposals", url.Values{"slug": {"acme"}, "status": {"DRAFT"}}, session)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeJSON(t, rr)
	assert.Equal(t, CodeValidation, body["code"])
	assert.Equal(t, "slug already in use", body["error"])

	rr = h.do(httptest.NewRequest(http.MethodGet, "/dashboard/proposals/", nil), session)
	require.Equal(t, http.StatusOK, rr.Code)
	items := decodeJSON(t, rr)["items"].([]any)
	assert.Len(t, items, 1)

	rr = h.form(http.MethodPut, "/dashboard/proposals/"+id, url.Values{"slug": {"acme-renamed"}, "status": {"DRAFT"}, "dataEn": {proposalEn}}, session)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "acme-renamed", decodeJSON(t, rr)["slug"])

	rr = h.do(httptest.NewRequest(http.MethodPost, "/dashboard/proposals/"+id+"/duplicate", nil), session)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "acme-renamed-copy", decodeJSON(t, rr)["slug"])

	rr = h.do(httptest.NewRequest(http.MethodGet, "/dashboard/proposals/missing", nil), session)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeNotFound, decodeJSON(t, rr)["code"])

	rr = h.do(httptest.NewRequest(http.MethodGet, "/p/acme-renamed", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = h.do(httptest.NewRequest(http.MethodDelete, "/dashboard/proposals/"+id, nil), session)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = h.do(httptest.NewRequest(http.MethodDelete, "/dashboard/proposals/"+id, nil), session)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = h.do(httptest.NewRequest(http.MethodGet, "/dashboard/search?q=growth", nil), session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, decodeJSON(t, rr)["total"])

	rr = h.do(httptest.NewRequest(http.MethodGet, "/dashboard/search?q=growth&kind=blog", nil), session)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPublicProposalRoute(t *testing.T) {
	h := newHTTPFixture(t)
	_, err := h.svc.CreateProposal(context.Background(), ProposalInput{Slug: "acme", Status: "PUBLISHED", DataAr: proposalAr})
	require.NoError(t, err)

	rr := h.do(httptest.NewRequest(http.MethodGet, "/p/acme", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeJSON(t, rr)
	assert.Equal(t, false, body["hasEn"])
	assert.Equal(t, true, body["hasAr"])
	assert.NotContains(t, body, "dataEn")
}

func TestProgressUnlockFlow(t *testing.T) {
	h := newHTTPFixture(t)
	_, err := h.svc.CreateProgress(context.Background(), ProgressInput{
		Slug:     "acme",
		Status:   "PUBLISHED",
		DataEn:   progressEn,
		Password: "open-sesame",
		Flags:    ProgressFlags{ShowClient: true},
	})
	require.NoError(t, err)

	rr := h.do(httptest.NewRequest(http.MethodGet, "/progress/acme", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeJSON(t, rr)
	assert.Equal(t, CodeLocked, body["code"])
	assert.Equal(t, map[string]any{"slug": "acme"}, body["details"])

	rr = h.form(http.MethodPost, "/progress/acme/unlock", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, CodeIncorrectPassword, decodeJSON(t, rr)["code"])

	rr = h.form(http.MethodPost, "/progress/acme/unlock", url.Values{"password": {"open-sesame"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/progress/acme", rr.Header().Get("Location"))
	access := findCookie(rr, auth.ProgressCookie)
	require.NotNil(t, access)

	rr = h.do(httptest.NewRequest(http.MethodGet, "/progress/acme", nil), access)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body = decodeJSON(t, rr)
	en := body["en"].(map[string]any)
	data := en["data"].(map[string]any)
	assert.Equal(t, "Acme", data["client"].(map[string]any)["name"])

	// A progress cookie never opens a meta page.
	rr = h.do(httptest.NewRequest(http.MethodGet, "/meta/acme", nil), &http.Cookie{Name: auth.MetaCookie, Value: access.Value})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetaUnlockFlow(t *testing.T) {
	h := newHTTPFixture(t)
	_, err := h.svc.CreateMeta(context.Background(), MetaInput{Slug: "ads", Status: "PUBLISHED", DataEn: metaEn, Password: "pw"})
	require.NoError(t, err)

	rr := h.form(http.MethodPost, "/meta/ads/unlock", url.Values{"password": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "Password is required.", decodeJSON(t, rr)["error"])

	rr = h.form(http.MethodPost, "/meta/ads/unlock", url.Values{"password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	access := findCookie(rr, auth.MetaCookie)
	require.NotNil(t, access)

	rr = h.do(httptest.NewRequest(http.MethodGet, "/meta/ads", nil), access)
	require.Equal(t, http.StatusOK, rr.Code)
	en := decodeJSON(t, rr)["en"].(map[string]any)
	assert.Contains(t, en, "rollup")
}

func multipartUpload(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, writer.WriteField("other", "value"))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadRoutes(t *testing.T) {
	h := newHTTPFixture(t)
	session := h.login(t)

	upload := func(filename, contentType, content string) *httptest.ResponseRecorder {
		body, ct := multipartUpload(t, filename, contentType, content)
		req := httptest.NewRequest(http.MethodPost, "/dashboard/uploads", body)
		req.Header.Set("Content-Type", ct)
		return h.do(req, session)
	}

	rr := upload("", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Image file is required.", decodeJSON(t, rr)["error"])

	rr = upload("notes.txt", "text/plain", "hello")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Only image uploads are allowed.", decodeJSON(t, rr)["error"])

	rr = upload("pixel.png", "image/png", "png-bytes")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	location := decodeJSON(t, rr)["url"].(string)
	assert.True(t, strings.HasPrefix(location, "/uploads/"))

	rr = h.do(httptest.NewRequest(http.MethodGet, location, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rr.Body.String())

	req := httptest.NewRequest(http.MethodDelete, "/dashboard/uploads", strings.NewReader(`{"url":"`+location+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = h.do(req, session)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(httptest.NewRequest(http.MethodGet, location, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/dashboard/uploads", strings.NewReader(`{}`))
	rr = h.do(req, session)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing url.", decodeJSON(t, rr)["error"])
}
