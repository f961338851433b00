package auth

import (
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}
}

func TestSessions(t *testing.T) {
	sessions := NewSessions("test-secret", time.Hour)

	t.Run("issue and verify round-trip", func(t *testing.T) {
		token, err := sessions.Issue("user-123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		userID, err := sessions.Verify(token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if userID != "user-123" {
			t.Fatalf("userID = %q, want user-123", userID)
		}
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		token, _ := sessions.Issue("user-123")
		if _, err := sessions.Verify(token + "x"); err == nil {
			t.Fatal("expected an error for a tampered token")
		}
	})

	t.Run("token signed with another secret rejected", func(t *testing.T) {
		other := NewSessions("different-secret", time.Hour)
		token, _ := other.Issue("user-123")
		if _, err := sessions.Verify(token); err == nil {
			t.Fatal("expected an error for a foreign token")
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		shortLived := NewSessions("test-secret", -time.Minute)
		token, _ := shortLived.Issue("user-123")
		if _, err := sessions.Verify(token); err == nil {
			t.Fatal("expected an error for an expired token")
		}
	})
}
