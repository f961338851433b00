package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/memchat/internal/auth"
	"github.com/iammorganparry/memchat/internal/chat"
	"github.com/iammorganparry/memchat/internal/memory"
	"github.com/iammorganparry/memchat/internal/store"
)

// RouterConfig carries the wiring the router needs.
type RouterConfig struct {
	DB            *store.DB
	Users         *store.UserStore
	Conversations *store.ConversationStore
	Memories      *memory.Service
	Orchestrator  *chat.Orchestrator
	Sessions      *auth.Sessions
	ClientOrigin  string
	SecureCookies bool
	WebDir        string
	Logger        *slog.Logger
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /api/health)
	r.Use(CORS(cfg.ClientOrigin))
	r.Use(RequestID)
	r.Use(Logger(cfg.Logger))
	r.Use(Recovery(cfg.Logger))

	// Handlers
	healthH := NewHealthHandler(cfg.DB)
	authH := NewAuthHandler(cfg.Users, cfg.Sessions, cfg.SecureCookies)
	convH := NewConversationHandler(cfg.Conversations)
	memoryH := NewMemoryHandler(cfg.Memories)
	chatH := NewChatHandler(cfg.Orchestrator)
	renderH := NewRenderHandler()

	r.Route("/api", func(r chi.Router) {
		// Unauthenticated routes
		r.Get("/health", healthH.Health)
		r.Group(func(r chi.Router) {
			r.Use(RequireDB(cfg.DB))
			r.Post("/auth/signup", authH.Signup)
			r.Post("/auth/login", authH.Login)
			r.Post("/auth/logout", authH.Logout)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(RequireDB(cfg.DB))
			r.Use(SessionAuth(cfg.Sessions, cfg.Users))

			r.Get("/auth/me", authH.Me)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", convH.List)
				r.Post("/", convH.Create)
				r.Get("/{id}", convH.Get)
				r.Patch("/{id}", convH.Update)
				r.Delete("/{id}", convH.Delete)
				r.Post("/{id}/messages", convH.AppendMessage)
				r.Delete("/{id}/messages", convH.ClearMessages)
				r.Post("/{id}/chat", chatH.Send)
			})

			r.Route("/memories", func(r chi.Router) {
				r.Get("/", memoryH.List)
				r.Post("/", memoryH.Create)
				r.Delete("/", memoryH.DeleteAll)
				r.Get("/{id}", memoryH.Get)
				r.Patch("/{id}", memoryH.Update)
				r.Delete("/{id}", memoryH.Delete)
			})

			r.Post("/render", renderH.Render)
		})
	})

	// Static assets for the web client.
	if cfg.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))
	}

	return r
}
