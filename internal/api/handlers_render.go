package api

import (
	"net/http"

	"github.com/iammorganparry/memchat/internal/markdown"
	"github.com/iammorganparry/memchat/internal/models"
)

type RenderHandler struct{}

func NewRenderHandler() *RenderHandler {
	return &RenderHandler{}
}

// Render handles POST /api/render
func (h *RenderHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req models.RenderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	html, err := markdown.Render(req.Content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.RenderResponse{HTML: html})
}
