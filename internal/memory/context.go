package memory

import (
	"sort"
	"strings"

	"github.com/iammorganparry/memchat/internal/models"
	"github.com/iammorganparry/memchat/internal/store"
)

const contextPreamble = "\n\nImportant user information and preferences (remember these across all conversations):\n"

const contextInstruction = "\n\nPlease use this information to answer questions about the user. If the user asks about something mentioned in the memories above, refer to it directly."

// ContextBlock builds the memory context injected ahead of the chat prompt.
// Global memories are always eligible; conversation-scoped ones only when
// they hold one of the user-fact types. Returns "" when nothing applies.
func (s *Service) ContextBlock(userID string, limit int) (string, error) {
	all, err := s.memories.ListByUser(userID, store.MemoryFilter{})
	if err != nil {
		return "", err
	}

	var relevant []*models.Memory
	for _, m := range all {
		if m.IsGlobal() || m.Type.IsValid() {
			relevant = append(relevant, m)
		}
	}
	if len(relevant) == 0 {
		return "", nil
	}

	// Global first, then by importance, then most recently updated.
	sort.SliceStable(relevant, func(i, j int) bool {
		a, b := relevant[i], relevant[j]
		if a.IsGlobal() != b.IsGlobal() {
			return a.IsGlobal()
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		return a.UpdatedAt > b.UpdatedAt
	})
	if limit > 0 && len(relevant) > limit {
		relevant = relevant[:limit]
	}

	lines := make([]string, len(relevant))
	for i, m := range relevant {
		lines[i] = "- " + m.Content
	}
	return contextPreamble + strings.Join(lines, "\n") + contextInstruction, nil
}
