package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRevokeAndExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	if err := store.Revoke(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if err := store.Revoke(ctx, "jti-old", now.Add(-time.Hour)); err != nil {
		t.Fatalf("Revoke expired failed: %v", err)
	}

	if revoked, _ := store.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatal("expected jti-1 to be revoked")
	}
	if revoked, _ := store.IsRevoked(ctx, "jti-old"); revoked {
		t.Fatal("expired token should not be recorded")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatal("entry should lapse once the token would have expired")
	}
}

func TestMemoryStoreSatisfiesRevoker(t *testing.T) {
	var _ Revoker = NewMemoryStore()
	var _ Revoker = (*RedisStore)(nil)
}
