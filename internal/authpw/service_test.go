package authpw

import (
	"context"
	"errors"
	"testing"
)

func TestSignIn(t *testing.T) {
	svc, err := NewService("admin", "correct horse")
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.SignIn(ctx, SignInRequest{Username: "  admin ", Password: "correct horse"})
		if err != nil {
			t.Fatalf("SignIn() error = %v", err)
		}
		if user != "admin" {
			t.Errorf("expected admin, got %q", user)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{Username: "admin", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong username", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{Username: "root", Password: "correct horse"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{Username: "admin"})
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestNewServiceWithHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	svc, err := NewServiceWithHash("ops", hash)
	if err != nil {
		t.Fatalf("NewServiceWithHash() error = %v", err)
	}
	if _, err := svc.SignIn(context.Background(), SignInRequest{Username: "ops", Password: "s3cret"}); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if _, err := NewServiceWithHash("ops", "not-a-bcrypt-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
	if _, err := NewService("", "x"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}
