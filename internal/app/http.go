package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pagebuilder/internal/auth"
	"pagebuilder/internal/blob"
	"pagebuilder/internal/document"
	"pagebuilder/internal/search"
	"pagebuilder/internal/store"
)

const (
	defaultAfterLogin = "/dashboard/proposals"
	maxUploadBytes    = 10 << 20
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	logger     *zap.Logger
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		logger:     service.logger.Named("http"),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/dashboard", func(d chi.Router) {
		d.Use(s.requireSession)
		d.Get("/session", s.handleSession)
		d.Get("/search", s.handleSearch)

		d.Route("/proposals", func(p chi.Router) {
			p.Get("/", s.handleListProposals)
			p.Post("/", s.handleCreateProposal)
			p.Get("/{id}", s.handleGetProposal)
			p.Put("/{id}", s.handleUpdateProposal)
			p.Delete("/{id}", s.handleDeleteProposal)
			p.Post("/{id}/duplicate", s.handleDuplicateProposal)
		})
		d.Route("/progress", func(p chi.Router) {
			p.Get("/", s.handleListProgress)
			p.Post("/", s.handleCreateProgress)
			p.Get("/{id}", s.handleGetProgress)
			p.Put("/{id}", s.handleUpdateProgress)
			p.Delete("/{id}", s.handleDeleteProgress)
		})
		d.Route("/meta", func(p chi.Router) {
			p.Get("/", s.handleListMeta)
			p.Post("/", s.handleCreateMeta)
			p.Get("/{id}", s.handleGetMeta)
			p.Put("/{id}", s.handleUpdateMeta)
			p.Delete("/{id}", s.handleDeleteMeta)
		})

		d.Post("/uploads", s.handleUpload)
		d.Delete("/uploads", s.handleDeleteUpload)
	})

	r.Get("/p/{slug}", s.handlePublicProposal)
	r.Get("/progress/{slug}", s.handlePublicProgress)
	r.Post("/progress/{slug}/unlock", s.handleUnlockProgress)
	r.Get("/meta/{slug}", s.handlePublicMeta)
	r.Post("/meta/{slug}/unlock", s.handleUnlockMeta)

	if local, ok := s.service.blobs.(*blob.LocalStore); ok && strings.HasPrefix(local.Base(), "/") && local.Base() != "/" {
		r.Handle(local.Base()+"/*", http.StripPrefix(local.Base(), local))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

// Operator session

func (s *HTTPServer) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if _, ok := s.sessionFromRequest(r); ok {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "next": next})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.service.scopes.Session.SetCookie(w, session.Token)
	http.Redirect(w, r, safeNext(r.PostFormValue("next")), http.StatusSeeOther)
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session, ok := s.sessionFromRequest(r); ok {
		if err := s.service.Logout(r.Context(), session); err != nil {
			s.logger.Warn("revoke session", zap.Error(err))
		}
	}
	s.service.scopes.Session.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      session.Username,
		"expiresAt":     session.ExpiresAt,
	})
}

func (s *HTTPServer) sessionFromRequest(r *http.Request) (Session, bool) {
	token := s.service.scopes.Session.TokenFromRequest(r)
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if !errors.Is(err, auth.ErrExpiredToken) && !errors.Is(err, auth.ErrInvalidToken) {
			s.logger.Warn("session lookup", zap.Error(err))
		}
		return Session{}, false
	}
	return session, true
}

type sessionKey struct{}

// requireSession sends visitors without a valid operator session to the
// login page, remembering where they were going.
func (s *HTTPServer) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.sessionFromRequest(r)
		if !ok {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func sessionFrom(ctx context.Context) Session {
	session, _ := ctx.Value(sessionKey{}).(Session)
	return session
}

// safeNext only allows same-site absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultAfterLogin
	}
	return next
}

// Dashboard

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	kind := document.Kind(query.Get("kind"))
	if _, err := document.Empty(kind); kind != "" && err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "unknown page kind", map[string]string{"field": "kind"})
		return
	}
	writeJSON(w, http.StatusOK, s.service.Search(search.Query{
		Text:   query.Get("q"),
		Kind:   kind,
		Limit:  limit,
		Offset: offset,
	}))
}

func (s *HTTPServer) handleListProposals(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListProposals(r.Context())
	s.respond(w, r, http.StatusOK, map[string]any{"items": items}, err)
}

func (s *HTTPServer) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetProposal(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	view, err := s.service.CreateProposal(r.Context(), proposalInput(r))
	s.respond(w, r, http.StatusCreated, view, err)
}

func (s *HTTPServer) handleUpdateProposal(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	view, err := s.service.UpdateProposal(r.Context(), chi.URLParam(r, "id"), proposalInput(r))
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleDeleteProposal(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteProposal(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, map[string]any{"ok": true}, err)
}

func (s *HTTPServer) handleDuplicateProposal(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.DuplicateProposal(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusCreated, view, err)
}

func (s *HTTPServer) handleListProgress(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListProgress(r.Context())
	s.respond(w, r, http.StatusOK, map[string]any{"items": items}, err)
}

func (s *HTTPServer) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetProgress(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleCreateProgress(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	view, err := s.service.CreateProgress(r.Context(), progressInput(r))
	s.respond(w, r, http.StatusCreated, view, err)
}

func (s *HTTPServer) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	view, err := s.service.UpdateProgress(r.Context(), chi.URLParam(r, "id"), progressInput(r))
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteProgress(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, map[string]any{"ok": true}, err)
}

func (s *HTTPServer) handleListMeta(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListMeta(r.Context())
	s.respond(w, r, http.StatusOK, map[string]any{"items": items}, err)
}

func (s *HTTPServer) handleGetMeta(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetMeta(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleCreateMeta(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	view, err := s.service.CreateMeta(r.Context(), metaInput(r))
	s.respond(w, r, http.StatusCreated, view, err)
}

func (s *HTTPServer) handleUpdateMeta(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	view, err := s.service.UpdateMeta(r.Context(), chi.URLParam(r, "id"), metaInput(r))
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleDeleteMeta(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteMeta(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, map[string]any{"ok": true}, err)
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, CodeInvalidUpload, "Image file is required.", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidUpload, "Image file is required.", nil)
		return
	}
	defer file.Close()

	location, err := s.service.UploadImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	s.respond(w, r, http.StatusOK, map[string]any{"url": location}, err)
}

func (s *HTTPServer) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		body.URL = ""
	}
	err := s.service.DeleteImage(r.Context(), body.URL)
	s.respond(w, r, http.StatusOK, map[string]any{"ok": true}, err)
}

// Public pages

func (s *HTTPServer) handlePublicProposal(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.PublicProposal(r.Context(), chi.URLParam(r, "slug"))
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handlePublicProgress(w http.ResponseWriter, r *http.Request) {
	access := requestAccess(s.service.scopes.Progress, r)
	view, err := s.service.PublicProgress(r.Context(), chi.URLParam(r, "slug"), access)
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleUnlockProgress(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	slug := chi.URLParam(r, "slug")
	granted, err := s.service.UnlockProgress(r.Context(), slug, r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.service.scopes.Progress.Grant(w, granted); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/progress/"+url.PathEscape(granted), http.StatusSeeOther)
}

func (s *HTTPServer) handlePublicMeta(w http.ResponseWriter, r *http.Request) {
	access := requestAccess(s.service.scopes.Meta, r)
	view, err := s.service.PublicMeta(r.Context(), chi.URLParam(r, "slug"), access)
	s.respond(w, r, http.StatusOK, view, err)
}

func (s *HTTPServer) handleUnlockMeta(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	slug := chi.URLParam(r, "slug")
	granted, err := s.service.UnlockMeta(r.Context(), slug, r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.service.scopes.Meta.Grant(w, granted); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/meta/"+url.PathEscape(granted), http.StatusSeeOther)
}

func requestAccess(scope *auth.Scope, r *http.Request) Access {
	return func(slug string) bool { return scope.HasAccess(r, slug) }
}

// Form carriers

func proposalInput(r *http.Request) ProposalInput {
	return ProposalInput{
		Slug:   r.PostFormValue("slug"),
		Status: r.PostFormValue("status"),
		DataEn: r.PostFormValue("dataEn"),
		DataAr: r.PostFormValue("dataAr"),
		Flags: ProposalFlags{
			ShowVision:   checked(r, "showVision"),
			ShowGoals:    checked(r, "showGoals"),
			ShowWorkPlan: checked(r, "showWorkPlan"),
			ShowPricing:  checked(r, "showPricing"),
			ShowNotes:    checked(r, "showNotes"),
			ShowNoticed:  checked(r, "showNoticed"),
		},
		ExpiresAt: r.PostFormValue("expiresAt"),
	}
}

func progressInput(r *http.Request) ProgressInput {
	return ProgressInput{
		Slug:   r.PostFormValue("slug"),
		Status: r.PostFormValue("status"),
		DataEn: r.PostFormValue("dataEn"),
		DataAr: r.PostFormValue("dataAr"),
		Flags: ProgressFlags{
			ShowClient:   checked(r, "showClient"),
			ShowPlan:     checked(r, "showPlan"),
			ShowCalendar: checked(r, "showCalendar"),
			ShowAssets:   checked(r, "showAssets"),
			ShowPayments: checked(r, "showPayments"),
			ShowMetaAds:  checked(r, "showMetaAds"),
		},
		Password: r.PostFormValue("password"),
	}
}

func metaInput(r *http.Request) MetaInput {
	return MetaInput{
		Slug:   r.PostFormValue("slug"),
		Status: r.PostFormValue("status"),
		DataEn: r.PostFormValue("dataEn"),
		DataAr: r.PostFormValue("dataAr"),
		Flags: MetaFlags{
			ShowClient:  checked(r, "showClient"),
			ShowWallet:  checked(r, "showWallet"),
			ShowResults: checked(r, "showResults"),
			ShowPlan:    checked(r, "showPlan"),
		},
		Password: r.PostFormValue("password"),
	}
}

func checked(r *http.Request, field string) bool {
	return r.PostFormValue(field) == "on"
}

// parseForm reads urlencoded and multipart bodies alike.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return fmt.Errorf("invalid form body")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("invalid form body")
	}
	return nil
}

// Plumbing

func (s *HTTPServer) respond(w http.ResponseWriter, r *http.Request, status int, payload any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, payload)
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", writer.status),
			zap.Int64("duration_ms", time.Since(started).Milliseconds()),
		)
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	if corsOrigin != "" {
		header.Set("Access-Control-Allow-Origin", corsOrigin)
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, CodeNotFound, "Not found", nil
	}
	if errors.Is(err, store.ErrSlugTaken) {
		return http.StatusUnprocessableEntity, CodeValidation, "slug already in use", map[string]string{"field": "slug"}
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
