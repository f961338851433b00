package memory

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iammorganparry/memchat/internal/models"
	"github.com/iammorganparry/memchat/internal/store"
)

func setupService(t *testing.T) (*Service, *store.MemoryStore, *store.ConversationStore, string) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := store.NewUserStore(db).Create("svc@example.com", "hash")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	memories := store.NewMemoryStore(db)
	conversations := store.NewConversationStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(memories, logger), memories, conversations, user.ID
}

func TestProcessTurnMessage(t *testing.T) {
	t.Run("plain fact is extracted and stored", func(t *testing.T) {
		svc, memories, _, userID := setupService(t)

		effect := svc.ProcessTurnMessage(userID, nil, "I live in Austin.")
		if len(effect.CreatedID) != 1 {
			t.Fatalf("expected one created memory, got %+v", effect)
		}
		m, err := memories.GetByID(userID, effect.CreatedID[0])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Content != "live in Austin" || m.Type != models.MemoryTypeFact {
			t.Fatalf("unexpected memory: %+v", m)
		}
	})

	t.Run("update command skips extraction", func(t *testing.T) {
		svc, memories, _, userID := setupService(t)
		seed, _ := memories.Insert(userID, &models.CreateMemoryRequest{Content: "name is Sam"})

		effect := svc.ProcessTurnMessage(userID, nil, "update my name to Alex")
		if effect.UpdatedID != seed.ID {
			t.Fatalf("expected update of %s, got %+v", seed.ID, effect)
		}
		if len(effect.CreatedID) != 0 {
			t.Fatalf("commands must not create memories, got %+v", effect)
		}
		m, _ := memories.GetByID(userID, seed.ID)
		if m.Content != "Alex" {
			t.Fatalf("content = %q, want Alex", m.Content)
		}
	})

	t.Run("delete command removes the target", func(t *testing.T) {
		svc, memories, _, userID := setupService(t)
		seed, _ := memories.Insert(userID, &models.CreateMemoryRequest{Content: "likes pizza"})

		effect := svc.ProcessTurnMessage(userID, nil, "forget about pizza")
		if effect.DeletedID != seed.ID {
			t.Fatalf("expected delete of %s, got %+v", seed.ID, effect)
		}
		if _, err := memories.GetByID(userID, seed.ID); err == nil {
			t.Fatal("memory should be gone")
		}
	})

	t.Run("unmatched command is a silent no-op", func(t *testing.T) {
		svc, memories, _, userID := setupService(t)
		memories.Insert(userID, &models.CreateMemoryRequest{Content: "likes pizza"})

		effect := svc.ProcessTurnMessage(userID, nil, "forget about quantum chromodynamics")
		if effect.DeletedID != "" || effect.UpdatedID != "" || len(effect.CreatedID) != 0 {
			t.Fatalf("expected a no-op, got %+v", effect)
		}
	})
}

func TestContextBlock(t *testing.T) {
	svc, memories, conversations, userID := setupService(t)

	t.Run("empty without memories", func(t *testing.T) {
		block, err := svc.ContextBlock(userID, 20)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if block != "" {
			t.Fatalf("expected empty block, got %q", block)
		}
	})

	t.Run("globals lead, then importance", func(t *testing.T) {
		conv, err := conversations.Create(userID, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, req := range []*models.CreateMemoryRequest{
			{Content: "scoped note", ConversationID: &conv.ID, Importance: 5},
			{Content: "minor global", Importance: 2},
			{Content: "major global", Importance: 5},
		} {
			if _, err := memories.Insert(userID, req); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		block, err := svc.ContextBlock(userID, 20)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(block, "Important user information and preferences") {
			t.Fatalf("preamble missing: %q", block)
		}
		major := strings.Index(block, "major global")
		minor := strings.Index(block, "minor global")
		scoped := strings.Index(block, "scoped note")
		if major < 0 || minor < 0 || scoped < 0 {
			t.Fatalf("entries missing: %q", block)
		}
		if !(major < minor && minor < scoped) {
			t.Fatalf("ordering wrong: major=%d minor=%d scoped=%d", major, minor, scoped)
		}
		// The last bullet runs straight into the instruction's blank line.
		if !strings.Contains(block, "- scoped note\n\nPlease use this information") {
			t.Fatalf("unexpected spacing before instruction: %q", block)
		}
	})

	t.Run("limit caps the entries", func(t *testing.T) {
		block, err := svc.ContextBlock(userID, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(block, "\n- ") != 1 {
			t.Fatalf("expected one entry, got %q", block)
		}
	})
}
