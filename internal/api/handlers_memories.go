package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/memchat/internal/memory"
	"github.com/iammorganparry/memchat/internal/models"
	"github.com/iammorganparry/memchat/internal/store"
)

type MemoryHandler struct {
	svc *memory.Service
}

func NewMemoryHandler(svc *memory.Service) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// List handles GET /api/memories
// The conversationId query parameter distinguishes three cases: absent
// means all memories, an id means that conversation's, and "null" (or
// empty) means global memories only.
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var filter store.MemoryFilter
	query := r.URL.Query()
	if query.Has("conversationId") {
		filter.HasConvFilter = true
		if cid := query.Get("conversationId"); cid != "" && cid != "null" {
			filter.ConversationID = &cid
		}
	}
	if t := query.Get("type"); t != "" {
		mt := models.MemoryType(t)
		if !mt.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid type")
			return
		}
		filter.Type = mt
	}

	memories, err := h.svc.List(user.ID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.MemoryListResponse{Memories: memories})
}

// Create handles POST /api/memories
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req models.CreateMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.Type != "" && !req.Type.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}
	if req.Importance != 0 && (req.Importance < models.MinImportance || req.Importance > models.MaxImportance) {
		writeError(w, http.StatusBadRequest, "importance must be between 1 and 5")
		return
	}

	mem, err := h.svc.Create(user.ID, &req)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, mem)
}

// Get handles GET /api/memories/{id}
func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	mem, err := h.svc.Get(user.ID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

// Update handles PATCH /api/memories/{id}
func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	var req models.UpdateMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content cannot be empty")
		return
	}
	if req.Type != nil && !req.Type.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}
	if req.Importance != nil && (*req.Importance < models.MinImportance || *req.Importance > models.MaxImportance) {
		writeError(w, http.StatusBadRequest, "importance must be between 1 and 5")
		return
	}

	mem, err := h.svc.Update(user.ID, id, &req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

// Delete handles DELETE /api/memories/{id}
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(user.ID, id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteAll handles DELETE /api/memories
func (h *MemoryHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	deleted, err := h.svc.DeleteAll(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
