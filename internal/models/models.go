package models

// User owns all conversations and memories.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

func (s Sender) IsValid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is a single entry in a conversation transcript. Messages are
// append-only: never edited or reordered once stored.
type Message struct {
	ID             int64    `json:"id"`
	ConversationID string   `json:"conversationId"`
	Seq            int      `json:"-"`
	Sender         Sender   `json:"sender"`
	Content        string   `json:"content"`
	Images         []string `json:"images,omitempty"`
	CreatedAt      int64    `json:"timestamp"`
}

const (
	DefaultTitle = "New Chat"
	DefaultModel = "gpt-5"
)

// Conversation is an ordered message list owned by a user.
type Conversation struct {
	ID           string     `json:"id"`
	UserID       string     `json:"-"`
	Title        string     `json:"title"`
	Model        string     `json:"model"`
	Messages     []*Message `json:"messages"`
	MessageCount int        `json:"messageCount"`
	CreatedAt    int64      `json:"createdAt"`
	UpdatedAt    int64      `json:"updatedAt"`
}

// MemoryType classifies what kind of knowledge a memory holds.
type MemoryType string

const (
	MemoryTypePreference  MemoryType = "user_preference"
	MemoryTypeContext     MemoryType = "conversation_context"
	MemoryTypeFact        MemoryType = "fact"
	MemoryTypeInstruction MemoryType = "instruction"
)

var ValidMemoryTypes = map[MemoryType]bool{
	MemoryTypePreference:  true,
	MemoryTypeContext:     true,
	MemoryTypeFact:        true,
	MemoryTypeInstruction: true,
}

func (t MemoryType) IsValid() bool {
	return ValidMemoryTypes[t]
}

// Importance bounds for a memory. DefaultImportance applies when a client
// omits the field.
const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// Memory is a small persisted fact, preference, or instruction. A nil
// ConversationID means the memory is global and applies across all of the
// user's conversations.
type Memory struct {
	ID             string     `json:"id"`
	UserID         string     `json:"-"`
	ConversationID *string    `json:"conversationId"`
	Content        string     `json:"content"`
	Type           MemoryType `json:"type"`
	Importance     int        `json:"importance"`
	Tags           []string   `json:"tags"`
	CreatedAt      int64      `json:"createdAt"`
	UpdatedAt      int64      `json:"updatedAt"`
}

// IsGlobal reports whether the memory is scoped to no conversation.
func (m *Memory) IsGlobal() bool {
	return m.ConversationID == nil
}
