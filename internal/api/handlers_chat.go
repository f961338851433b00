package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/memchat/internal/chat"
	"github.com/iammorganparry/memchat/internal/models"
)

type ChatHandler struct {
	orchestrator *chat.Orchestrator
}

func NewChatHandler(orchestrator *chat.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// Send handles POST /api/conversations/{id}/chat
// The response is a server-sent event stream: "delta" events carry reply
// fragments as they arrive, a final "done" event carries the persisted bot
// message and any new title, and an "error" event reports mid-stream
// failures. Busy and not-found conditions are rejected with plain JSON
// before the stream starts.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Content == "" && len(req.Images) == 0 {
		writeError(w, http.StatusBadRequest, "content or images required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var streaming bool
	startStream := func() {
		if streaming {
			return
		}
		streaming = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	result, err := h.orchestrator.Send(r.Context(), user.ID, id, req.Content, req.Images, req.Model, func(delta string) {
		startStream()
		writeEvent(w, "delta", map[string]string{"text": delta})
		flusher.Flush()
	})
	if err != nil {
		if streaming {
			writeEvent(w, "error", map[string]string{"error": err.Error()})
			flusher.Flush()
			return
		}
		switch {
		case errors.Is(err, chat.ErrBusy):
			writeError(w, http.StatusConflict, "a message is already being processed for this conversation")
		default:
			writeStoreError(w, err)
		}
		return
	}

	startStream()
	writeEvent(w, "done", map[string]any{
		"message": result.Reply,
		"title":   result.Title,
	})
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n"))
}
