package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pagebuilder/internal/auth"
	"pagebuilder/internal/authpw"
	"pagebuilder/internal/blob"
	"pagebuilder/internal/config"
	"pagebuilder/internal/search"
	"pagebuilder/internal/session"
	"pagebuilder/internal/store"
)

// Session is a verified operator session.
type Session struct {
	Token     string
	Username  string
	JTI       string
	ExpiresAt time.Time
}

type dataStore interface {
	Ping(context.Context) error

	ListProposals(context.Context) ([]store.Proposal, error)
	GetProposal(context.Context, string) (store.Proposal, error)
	GetProposalBySlug(context.Context, string) (store.Proposal, error)
	CreateProposal(context.Context, store.Proposal) (store.Proposal, error)
	UpdateProposal(context.Context, store.Proposal) (store.Proposal, error)
	DeleteProposal(context.Context, string) error
	ProposalSlugOwner(context.Context, string) (string, error)
	RevertExpiredProposals(context.Context, time.Time) (int64, error)
	RevertExpiredProposal(context.Context, string, time.Time) (bool, error)

	ListProgressPages(context.Context) ([]store.ProgressPage, error)
	GetProgressPage(context.Context, string) (store.ProgressPage, error)
	GetProgressPageBySlug(context.Context, string) (store.ProgressPage, error)
	CreateProgressPage(context.Context, store.ProgressPage) (store.ProgressPage, error)
	UpdateProgressPage(context.Context, store.ProgressPage) (store.ProgressPage, error)
	DeleteProgressPage(context.Context, string) error
	ProgressSlugOwner(context.Context, string) (string, error)

	ListMetaPages(context.Context) ([]store.MetaPage, error)
	GetMetaPage(context.Context, string) (store.MetaPage, error)
	GetMetaPageBySlug(context.Context, string) (store.MetaPage, error)
	CreateMetaPage(context.Context, store.MetaPage) (store.MetaPage, error)
	UpdateMetaPage(context.Context, store.MetaPage) (store.MetaPage, error)
	DeleteMetaPage(context.Context, string) error
	MetaSlugOwner(context.Context, string) (string, error)
}

// Deps are the collaborators a Service is built from. Revoker, Blobs and
// Meili are optional.
type Deps struct {
	Store   dataStore
	Revoker session.Revoker
	Blobs   blob.Store
	Meili   *search.Meili
	Logger  *zap.Logger
}

type Service struct {
	cfg         config.Config
	store       dataStore
	credentials *authpw.Service
	scopes      auth.Scopes
	secret      []byte
	revoker     session.Revoker
	blobs       blob.Store
	search      *search.Service
	logger      *zap.Logger
	now         func() time.Time
	// loc reads zone-less expiry input.
	loc *time.Location
}

func New(cfg config.Config, deps Deps) (*Service, error) {
	secret := strings.TrimSpace(cfg.SessionSecret)
	if secret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if deps.Store == nil {
		return nil, errors.New("data store is required")
	}

	var (
		credentials *authpw.Service
		err         error
	)
	if strings.TrimSpace(cfg.AdminPassBcrypt) != "" {
		credentials, err = authpw.NewServiceWithHash(cfg.AdminUser, strings.TrimSpace(cfg.AdminPassBcrypt))
	} else {
		credentials, err = authpw.NewService(cfg.AdminUser, cfg.AdminPass)
	}
	if err != nil {
		return nil, fmt.Errorf("operator credentials: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	revoker := deps.Revoker
	if revoker == nil {
		revoker = session.NewMemoryStore()
	}

	svc := &Service{
		cfg:         cfg,
		store:       deps.Store,
		credentials: credentials,
		scopes:      auth.NewScopes([]byte(secret), cfg.Production()),
		secret:      []byte(secret),
		revoker:     revoker,
		blobs:       deps.Blobs,
		logger:      logger,
		now:         time.Now,
		loc:         loc,
	}
	svc.search = search.NewService(deps.Meili, search.NewScan(svc.SearchRecords), logger)
	return svc, nil
}

// ReindexSearch pushes every stored page to the search index.
func (s *Service) ReindexSearch(ctx context.Context) {
	s.search.ReindexAll(ctx)
}

// Close waits for pending index calls and stops the search health loop.
func (s *Service) Close() {
	s.search.Close()
}

// setClock swaps the clock used for expiry checks, stamps and tokens.
func (s *Service) setClock(now func() time.Time) {
	s.now = now
	s.scopes = auth.Scopes{
		Session:  s.scopes.Session.WithClock(now),
		Progress: s.scopes.Progress.WithClock(now),
		Meta:     s.scopes.Meta.WithClock(now),
	}
}

func (s *Service) Scopes() auth.Scopes {
	return s.scopes
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Login checks operator credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	identity, err := s.credentials.SignIn(ctx, authpw.SignInRequest{Username: username, Password: password})
	if err != nil {
		if errors.Is(err, authpw.ErrInvalidCredentials) || errors.Is(err, authpw.ErrMissingCredentials) {
			return Session{}, domainError(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials.", nil)
		}
		return Session{}, err
	}
	token, claims, err := s.scopes.Session.IssueToken(identity)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		Username:  claims.Subject,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// SessionFromToken verifies an operator token and rejects revoked ones.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := s.scopes.Session.ParseToken(token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		Username:  claims.Subject,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Logout revokes the session's token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, sess Session) error {
	if sess.JTI == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, sess.JTI, sess.ExpiresAt)
}

// warn logs a best-effort failure that must not affect the caller.
func (s *Service) warn(msg string, err error, fields ...zap.Field) {
	s.logger.Warn(msg, append(fields, zap.Error(err))...)
}
