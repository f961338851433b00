// Package chat coordinates a full chat turn: memory side effects,
// persistence of the user message, streaming the model's reply, and the
// title bookkeeping around it.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/iammorganparry/memchat/internal/llm"
	"github.com/iammorganparry/memchat/internal/memory"
	"github.com/iammorganparry/memchat/internal/models"
	"github.com/iammorganparry/memchat/internal/store"
)

// ErrBusy is returned when a conversation already has a turn in flight.
var ErrBusy = errors.New("conversation busy")

const imageFallbackPrompt = "What do you see in this image?"

// TurnResult is what a completed turn produced. Reply is nil when the
// model returned nothing; Title is non-empty only when the conversation
// was renamed during the turn.
type TurnResult struct {
	Reply *models.Message
	Title string
}

type Orchestrator struct {
	conversations *store.ConversationStore
	memories      *memory.Service
	completer     llm.Completer
	logger        *slog.Logger

	historyLimit int
	memoryLimit  int

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewOrchestrator(conversations *store.ConversationStore, memories *memory.Service, completer llm.Completer, logger *slog.Logger, historyLimit, memoryLimit int) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		memories:      memories,
		completer:     completer,
		logger:        logger,
		historyLimit:  historyLimit,
		memoryLimit:   memoryLimit,
		inflight:      make(map[string]struct{}),
	}
}

// tryBegin reserves the conversation for one turn.
func (o *Orchestrator) tryBegin(conversationID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[conversationID]; busy {
		return false
	}
	o.inflight[conversationID] = struct{}{}
	return true
}

func (o *Orchestrator) end(conversationID string) {
	o.mu.Lock()
	delete(o.inflight, conversationID)
	o.mu.Unlock()
}

// Send runs one chat turn. onDelta receives streamed reply chunks as they
// arrive. Upstream failures do not fail the turn: the error text is
// appended as a bot message so the conversation keeps its record.
func (o *Orchestrator) Send(ctx context.Context, userID string, conversationID, text string, images []string, model string, onDelta func(string)) (*TurnResult, error) {
	if !o.tryBegin(conversationID) {
		return nil, ErrBusy
	}
	defer o.end(conversationID)

	conv, err := o.conversations.GetByID(userID, conversationID)
	if err != nil {
		return nil, err
	}

	wasDefault := conv.Title == models.DefaultTitle
	firstMessage := conv.MessageCount == 0

	convID := conv.ID
	o.memories.ProcessTurnMessage(userID, &convID, text)

	result := &TurnResult{}

	if firstMessage {
		title := text
		if title == "" {
			title = "Image analysis"
		}
		if _, err := o.conversations.Update(userID, conv.ID, &models.UpdateConversationRequest{Title: &title}); err != nil {
			o.logger.Warn("first-message title update failed", "conversationId", conv.ID, "error", err)
		} else {
			result.Title = title
		}
	}

	// History is captured before the user message is appended so the
	// prompt does not repeat the current input.
	history, err := o.conversations.LastMessages(conv.ID, o.historyLimit)
	if err != nil {
		return nil, err
	}

	userContent := text
	if userContent == "" {
		userContent = "(Image)"
	}
	if _, err := o.conversations.AppendMessage(userID, conv.ID, models.SenderUser, userContent, images); err != nil {
		return nil, err
	}

	memoryContext, err := o.memories.ContextBlock(userID, o.memoryLimit)
	if err != nil {
		o.logger.Warn("memory context unavailable", "conversationId", conv.ID, "error", err)
		memoryContext = ""
	}

	input := text
	if input == "" {
		input = imageFallbackPrompt
	}
	prompt := buildPrompt(memoryContext, history, input, o.historyLimit)

	var image string
	if len(images) > 0 {
		image = images[0]
	}

	reply, err := o.completer.Complete(ctx, llm.CompletionRequest{
		Prompt: prompt,
		Image:  image,
		Model:  model,
	}, onDelta)
	if err != nil {
		o.logger.Error("completion failed", "conversationId", conv.ID, "error", err)
		errMsg, appendErr := o.conversations.AppendMessage(userID, conv.ID, models.SenderBot, "**Error:** "+llm.UnwrapError(err), nil)
		if appendErr != nil {
			return nil, appendErr
		}
		result.Reply = errMsg
		return result, nil
	}

	if strings.TrimSpace(reply) != "" {
		botMsg, err := o.conversations.AppendMessage(userID, conv.ID, models.SenderBot, reply, nil)
		if err != nil {
			return nil, err
		}
		result.Reply = botMsg
	}

	if wasDefault && len(reply) > 0 {
		if title := deriveTitle(reply); title != "" {
			if _, err := o.conversations.Update(userID, conv.ID, &models.UpdateConversationRequest{Title: &title}); err != nil {
				o.logger.Warn("reply title update failed", "conversationId", conv.ID, "error", err)
			} else {
				result.Title = title
			}
		}
	}

	return result, nil
}
