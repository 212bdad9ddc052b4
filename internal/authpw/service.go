// Package authpw verifies the operator's username and password.
package authpw

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service checks sign-in attempts against the single configured operator.
type Service struct {
	username     string
	passwordHash []byte
}

// NewService hashes the plaintext operator password once at startup.
func NewService(username, password string) (*Service, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Service{username: username, passwordHash: []byte(hash)}, nil
}

// NewServiceWithHash uses a bcrypt hash produced ahead of time, e.g. by the
// hash-password command.
func NewServiceWithHash(username, passwordHash string) (*Service, error) {
	if strings.TrimSpace(username) == "" || passwordHash == "" {
		return nil, ErrMissingCredentials
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("parse password hash: %w", err)
	}
	return &Service{username: username, passwordHash: []byte(passwordHash)}, nil
}

// SignInRequest contains sign-in parameters
type SignInRequest struct {
	Username string
	Password string
}

// SignIn returns the operator identity when the credentials match.
func (s *Service) SignIn(_ context.Context, req SignInRequest) (string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return "", ErrMissingCredentials
	}

	userMatches := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// bcrypt runs even when the username differs.
	passwordErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password))
	if !userMatches || passwordErr != nil {
		return "", ErrInvalidCredentials
	}
	return s.username, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
