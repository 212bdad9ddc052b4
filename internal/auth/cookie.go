package auth

import (
	"net/http"
)

const (
	SessionCookie  = "pb_session"
	ProgressCookie = "pb_progress"
	MetaCookie     = "pb_meta"
)

// Scopes bundles the three token domains used by the service.
type Scopes struct {
	Session  *Scope
	Progress *Scope
	Meta     *Scope
}

func NewScopes(secret []byte, secure bool) Scopes {
	return Scopes{
		Session:  NewScope(SessionCookie, "operator-session", secret, secure),
		Progress: NewScope(ProgressCookie, "progress-access", secret, secure),
		Meta:     NewScope(MetaCookie, "meta-access", secret, secure),
	}
}

func (s *Scope) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetCookie writes token into the scope's cookie.
func (s *Scope) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, s.cookie(token, int(s.ttl.Seconds())))
}

// ClearCookie overwrites the scope's cookie with an empty, expired value.
func (s *Scope) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

// Grant issues a token for subject and stores it in the response cookie.
func (s *Scope) Grant(w http.ResponseWriter, subject string) (Claims, error) {
	token, claims, err := s.IssueToken(subject)
	if err != nil {
		return Claims{}, err
	}
	s.SetCookie(w, token)
	return claims, nil
}

// TokenFromRequest returns the raw cookie value, or "".
func (s *Scope) TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// FromRequest verifies the scope's cookie on r. Every failure reports false.
func (s *Scope) FromRequest(r *http.Request) (Claims, bool) {
	claims, err := s.ParseToken(s.TokenFromRequest(r))
	if err != nil {
		return Claims{}, false
	}
	return claims, true
}

// HasAccess reports whether r carries a valid token of this scope whose
// subject is exactly subject.
func (s *Scope) HasAccess(r *http.Request, subject string) bool {
	claims, ok := s.FromRequest(r)
	return ok && subject != "" && claims.Subject == subject
}
