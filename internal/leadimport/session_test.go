package leadimport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/admitra/leadflow/internal/domain"
)

func TestSessionStoreConsumeIsSingleUse(t *testing.T) {
	store := NewSessionStore(time.Minute)

	created := store.Create(domain.UploadSession{
		Token:          "token-1",
		StagedFilePath: "/tmp/does-not-matter",
		OriginalName:   "leads.xlsx",
	})
	if created.ExpiresAt.Sub(created.CreatedAt) != time.Minute {
		t.Fatalf("expected TTL stamped on session, got %v", created.ExpiresAt.Sub(created.CreatedAt))
	}

	session, ok := store.Consume("token-1")
	if !ok {
		t.Fatalf("expected first consume to succeed")
	}
	if session.OriginalName != "leads.xlsx" {
		t.Fatalf("unexpected session returned: %+v", session)
	}

	if _, ok := store.Consume("token-1"); ok {
		t.Fatalf("expected second consume to fail")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d sessions", store.Len())
	}
}

func TestSessionStoreConsumeUnknownToken(t *testing.T) {
	store := NewSessionStore(time.Minute)
	if _, ok := store.Consume("missing"); ok {
		t.Fatalf("expected unknown token to miss")
	}
}

func TestSessionStoreEvictionRemovesStagedFile(t *testing.T) {
	staged := filepath.Join(t.TempDir(), "staged.csv")
	if err := os.WriteFile(staged, []byte("name\n"), 0o644); err != nil {
		t.Fatalf("failed to write staged file: %v", err)
	}

	store := NewSessionStore(20 * time.Millisecond)
	store.Create(domain.UploadSession{Token: "token-2", StagedFilePath: staged})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if store.Len() == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session was not evicted before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("expected staged file removed on eviction, stat err: %v", err)
	}
}

func TestSessionStoreExpireKeepsFileWhenAsked(t *testing.T) {
	staged := filepath.Join(t.TempDir(), "staged.csv")
	if err := os.WriteFile(staged, []byte("name\n"), 0o644); err != nil {
		t.Fatalf("failed to write staged file: %v", err)
	}

	store := NewSessionStore(time.Minute)
	store.Create(domain.UploadSession{Token: "token-3", StagedFilePath: staged})
	store.Expire("token-3", false)

	if store.Len() != 0 {
		t.Fatalf("expected session removed")
	}
	if _, err := os.Stat(staged); err != nil {
		t.Fatalf("expected staged file kept, got %v", err)
	}
}

func TestSessionStoreDefaultTTL(t *testing.T) {
	store := NewSessionStore(0)
	if store.TTL() != 30*time.Minute {
		t.Fatalf("expected default TTL of 30m, got %v", store.TTL())
	}
}
