package api

import (
	"net/http"

	"github.com/iammorganparry/memchat/internal/models"
	"github.com/iammorganparry/memchat/internal/store"
)

type HealthHandler struct {
	db *store.DB
}

func NewHealthHandler(db *store.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{Status: "ok", DB: "ok"}

	if err := h.db.PingContext(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.DB = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if n, err := h.db.ConversationCount(); err == nil {
		resp.ConversationCount = n
	}
	if n, err := h.db.MemoryCount(); err == nil {
		resp.MemoryCount = n
	}
	writeJSON(w, http.StatusOK, resp)
}
