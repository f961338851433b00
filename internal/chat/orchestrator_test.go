package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/iammorganparry/memchat/internal/llm"
	"github.com/iammorganparry/memchat/internal/memory"
	"github.com/iammorganparry/memchat/internal/models"
	"github.com/iammorganparry/memchat/internal/store"
)

type fakeCompleter struct {
	fn func(ctx context.Context, req llm.CompletionRequest, onDelta func(string)) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest, onDelta func(string)) (string, error) {
	return f.fn(ctx, req, onDelta)
}

func streamReply(parts ...string) *fakeCompleter {
	return &fakeCompleter{fn: func(_ context.Context, _ llm.CompletionRequest, onDelta func(string)) (string, error) {
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(p)
			if onDelta != nil {
				onDelta(p)
			}
		}
		return b.String(), nil
	}}
}

type fixture struct {
	orchestrator  *Orchestrator
	conversations *store.ConversationStore
	memories      *store.MemoryStore
	userID        string
	convID        string
}

func setupOrchestrator(t *testing.T, completer llm.Completer) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user, err := store.NewUserStore(db).Create("chat@example.com", "hash")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	conversations := store.NewConversationStore(db)
	conv, err := conversations.Create(user.ID, "")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
	memories := store.NewMemoryStore(db)
	svc := memory.NewService(memories, logger)

	return &fixture{
		orchestrator:  NewOrchestrator(conversations, svc, completer, logger, 10, 20),
		conversations: conversations,
		memories:      memories,
		userID:        user.ID,
		convID:        conv.ID,
	}
}

func TestSendStreamsAndPersists(t *testing.T) {
	f := setupOrchestrator(t, streamReply("Paris is the capital of France. ", "It has great food."))

	var deltas []string
	result, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "Tell me about Paris", nil, "", func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}
	if result.Reply == nil || result.Reply.Sender != models.SenderBot {
		t.Fatalf("expected a persisted bot reply, got %+v", result.Reply)
	}

	conv, err := f.conversations.GetWithMessages(f.userID, f.convID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected user + bot messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Sender != models.SenderUser || conv.Messages[0].Content != "Tell me about Paris" {
		t.Fatalf("unexpected user message: %+v", conv.Messages[0])
	}
	if conv.Messages[1].Content != "Paris is the capital of France. It has great food." {
		t.Fatalf("unexpected bot message: %+v", conv.Messages[1])
	}

	// Title comes from the reply's first sentence once streaming finishes.
	if conv.Title != "Paris is the capital of France" {
		t.Fatalf("title = %q", conv.Title)
	}
	if result.Title != conv.Title {
		t.Fatalf("result title = %q, want %q", result.Title, conv.Title)
	}
}

func TestSendRejectsConcurrentTurns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	// Only the first turn blocks; the follow-up send after the slot
	// frees must not trip over an already-closed channel.
	blocking := &fakeCompleter{fn: func(_ context.Context, _ llm.CompletionRequest, _ func(string)) (string, error) {
		once.Do(func() {
			close(started)
			<-release
		})
		return "done", nil
	}}
	f := setupOrchestrator(t, blocking)

	errCh := make(chan error, 1)
	go func() {
		_, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "first", nil, "", nil)
		errCh <- err
	}()
	<-started

	_, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "second", nil, "", nil)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	// The slot frees once the first turn completes.
	if _, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "third", nil, "", nil); err != nil {
		t.Fatalf("expected the conversation to be free again, got %v", err)
	}
}

func TestSendCapsPromptHistory(t *testing.T) {
	var sawPrompt string
	capture := &fakeCompleter{fn: func(_ context.Context, req llm.CompletionRequest, _ func(string)) (string, error) {
		sawPrompt = req.Prompt
		return "ok", nil
	}}
	f := setupOrchestrator(t, capture)

	for _, content := range []string{"oldest line", "middle line", "newest line"} {
		if _, err := f.conversations.AppendMessage(f.userID, f.convID, models.SenderUser, content, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	short := NewOrchestrator(f.conversations, memory.NewService(f.memories, logger), capture, logger, 2, 20)
	if _, err := short.Send(context.Background(), f.userID, f.convID, "and now?", nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(sawPrompt, "oldest line") {
		t.Fatalf("history beyond the cap leaked into the prompt: %q", sawPrompt)
	}
	if !strings.Contains(sawPrompt, "middle line") || !strings.Contains(sawPrompt, "newest line") {
		t.Fatalf("recent history missing from the prompt: %q", sawPrompt)
	}
}

func TestSendUpstreamErrorBecomesBotMessage(t *testing.T) {
	failing := &fakeCompleter{fn: func(_ context.Context, _ llm.CompletionRequest, _ func(string)) (string, error) {
		return "", errors.New("model is overloaded")
	}}
	f := setupOrchestrator(t, failing)

	result, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "hello", nil, "", nil)
	if err != nil {
		t.Fatalf("upstream errors should not fail the turn: %v", err)
	}
	if result.Reply == nil || !strings.HasPrefix(result.Reply.Content, "**Error:**") {
		t.Fatalf("expected an error-flavored bot message, got %+v", result.Reply)
	}

	conv, _ := f.conversations.GetWithMessages(f.userID, f.convID)
	if len(conv.Messages) != 2 {
		t.Fatalf("expected user + error messages, got %d", len(conv.Messages))
	}
	if !strings.Contains(conv.Messages[1].Content, "model is overloaded") {
		t.Fatalf("error text missing from transcript: %q", conv.Messages[1].Content)
	}
}

func TestSendExtractsMemories(t *testing.T) {
	f := setupOrchestrator(t, streamReply("Noted!"))

	if _, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "I live in Austin.", nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mems, err := f.memories.ListByUser(f.userID, store.MemoryFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mems) != 1 || mems[0].Content != "live in Austin" {
		t.Fatalf("expected the extracted fact, got %+v", mems)
	}
}

func TestSendUpdateCommandSuppressesExtraction(t *testing.T) {
	f := setupOrchestrator(t, streamReply("Updated!"))

	seed, err := f.memories.Insert(f.userID, &models.CreateMemoryRequest{Content: "name is Sam"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "update my name to Alex", nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mems, _ := f.memories.ListByUser(f.userID, store.MemoryFilter{})
	if len(mems) != 1 {
		t.Fatalf("a command must not create new memories, got %d", len(mems))
	}
	if mems[0].ID != seed.ID || mems[0].Content != "Alex" {
		t.Fatalf("expected the seeded memory updated to Alex, got %+v", mems[0])
	}
}

func TestSendImageOnlyTurn(t *testing.T) {
	var sawImage string
	completer := &fakeCompleter{fn: func(_ context.Context, req llm.CompletionRequest, _ func(string)) (string, error) {
		sawImage = req.Image
		return "A sunset over water.", nil
	}}
	f := setupOrchestrator(t, completer)

	if _, err := f.orchestrator.Send(context.Background(), f.userID, f.convID, "", []string{"data:image/png;base64,abc"}, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawImage != "data:image/png;base64,abc" {
		t.Fatalf("image not forwarded, got %q", sawImage)
	}

	conv, _ := f.conversations.GetWithMessages(f.userID, f.convID)
	if conv.Messages[0].Content != "(Image)" {
		t.Fatalf("expected image placeholder content, got %q", conv.Messages[0].Content)
	}
}
