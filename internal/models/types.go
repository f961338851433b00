package models

// SignupRequest is the payload for POST /api/auth/signup.
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned from signup, login, and me.
type AuthResponse struct {
	User *User `json:"user"`
}

// CreateConversationRequest is the payload for POST /api/conversations.
type CreateConversationRequest struct {
	Model string `json:"model"`
}

// UpdateConversationRequest is the payload for PATCH /api/conversations/{id}.
// Nil fields are left untouched.
type UpdateConversationRequest struct {
	Title *string `json:"title,omitempty"`
	Model *string `json:"model,omitempty"`
}

// AppendMessageRequest is the payload for POST /api/conversations/{id}/messages.
type AppendMessageRequest struct {
	Sender  Sender   `json:"sender"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ConversationListResponse is returned from GET /api/conversations.
// Entries carry metadata only; messages are fetched per conversation.
type ConversationListResponse struct {
	Conversations []*Conversation `json:"conversations"`
}

// CreateMemoryRequest is the payload for POST /api/memories.
type CreateMemoryRequest struct {
	Content        string     `json:"content"`
	Type           MemoryType `json:"type"`
	Tags           []string   `json:"tags"`
	Importance     int        `json:"importance"`
	ConversationID *string    `json:"conversationId,omitempty"`
}

// UpdateMemoryRequest is the payload for PATCH /api/memories/{id}.
type UpdateMemoryRequest struct {
	Content    *string     `json:"content,omitempty"`
	Type       *MemoryType `json:"type,omitempty"`
	Tags       *[]string   `json:"tags,omitempty"`
	Importance *int        `json:"importance,omitempty"`
}

// MemoryListResponse is returned from GET /api/memories.
type MemoryListResponse struct {
	Memories []*Memory `json:"memories"`
}

// ChatRequest is the payload for POST /api/conversations/{id}/chat.
type ChatRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
	Model   string   `json:"model,omitempty"`
}

// RenderRequest is the payload for POST /api/render.
type RenderRequest struct {
	Content string `json:"content"`
}

// RenderResponse carries the sanitized HTML fragment for a markdown source.
type RenderResponse struct {
	HTML string `json:"html"`
}

// HealthResponse is returned from GET /api/health.
type HealthResponse struct {
	Status            string `json:"status"`
	DB                string `json:"db"`
	ConversationCount int    `json:"conversationCount"`
	MemoryCount       int    `json:"memoryCount"`
}
