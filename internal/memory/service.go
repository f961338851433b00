// Package memory implements the heuristic memory layer: regex-based
// extraction of facts from chat messages, detection of update/delete
// commands, best-effort matching against stored memories, and the CRUD
// service the API handlers use.
package memory

import (
	"log/slog"

	"github.com/iammorganparry/memchat/internal/models"
	"github.com/iammorganparry/memchat/internal/store"
)

// Service owns memory persistence and the chat-turn side effects.
type Service struct {
	memories *store.MemoryStore
	logger   *slog.Logger
}

func NewService(memories *store.MemoryStore, logger *slog.Logger) *Service {
	return &Service{memories: memories, logger: logger}
}

// List returns the user's memories, most recently updated first.
func (s *Service) List(userID string, f store.MemoryFilter) ([]*models.Memory, error) {
	return s.memories.ListByUser(userID, f)
}

// Get fetches a single memory owned by the user.
func (s *Service) Get(userID, id string) (*models.Memory, error) {
	return s.memories.GetByID(userID, id)
}

// Create persists an explicit user-created memory.
func (s *Service) Create(userID string, req *models.CreateMemoryRequest) (*models.Memory, error) {
	return s.memories.Insert(userID, req)
}

// Update applies partial updates to a memory.
func (s *Service) Update(userID, id string, req *models.UpdateMemoryRequest) (*models.Memory, error) {
	return s.memories.Update(userID, id, req)
}

// Delete removes one memory.
func (s *Service) Delete(userID, id string) error {
	return s.memories.Delete(userID, id)
}

// DeleteAll removes every memory owned by the user.
func (s *Service) DeleteAll(userID string) (int64, error) {
	return s.memories.DeleteAll(userID)
}

// SideEffect reports what ProcessTurnMessage did with an utterance.
type SideEffect struct {
	UpdatedID string
	DeletedID string
	CreatedID []string
}

// ProcessTurnMessage runs the memory side effects for one outgoing chat
// message: commands first (update before delete), extraction only when no
// command matched. Everything here is best-effort; failures are logged and
// swallowed so they can never abort the send.
func (s *Service) ProcessTurnMessage(userID string, conversationID *string, text string) SideEffect {
	var effect SideEffect
	if text == "" {
		return effect
	}

	cmd := DetectCommand(text)
	if cmd == nil {
		effect.CreatedID = s.extractAndCreate(userID, conversationID, text)
		return effect
	}

	existing, err := s.memories.ListByUser(userID, store.MemoryFilter{})
	if err != nil {
		s.logger.Warn("memory command skipped: list failed", "error", err)
		return effect
	}
	target := FindTarget(existing, cmd)
	if target == nil {
		return effect
	}

	switch cmd.Kind {
	case CommandUpdate:
		if _, err := s.memories.Update(userID, target.ID, &models.UpdateMemoryRequest{Content: &cmd.NewValue}); err != nil {
			s.logger.Warn("memory update command failed", "memoryId", target.ID, "error", err)
		} else {
			effect.UpdatedID = target.ID
		}
	case CommandDelete:
		if err := s.memories.Delete(userID, target.ID); err != nil {
			s.logger.Warn("memory delete command failed", "memoryId", target.ID, "error", err)
		} else {
			effect.DeletedID = target.ID
		}
	}

	return effect
}

// extractAndCreate persists extraction candidates: the whole message first,
// then sentence-by-sentence when the whole message yielded nothing.
func (s *Service) extractAndCreate(userID string, conversationID *string, text string) []string {
	candidates := []*Candidate{}
	if c := Extract(text); c != nil {
		candidates = append(candidates, c)
	} else {
		candidates = ExtractAll(text)
	}

	var created []string
	for _, c := range candidates {
		m, err := s.memories.Insert(userID, &models.CreateMemoryRequest{
			Content:        c.Content,
			Type:           c.Type,
			Importance:     c.Importance,
			ConversationID: conversationID,
		})
		if err != nil {
			s.logger.Warn("memory extraction persist failed", "error", err)
			continue
		}
		created = append(created, m.ID)
	}
	return created
}
