package llm

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"songteller/pkg/utils"
)

// ContextResetter clears conversational state held by the LLM backend.
type ContextResetter interface {
	ResetContext(ctx context.Context) error
}

// Handler exposes LLM maintenance endpoints.
type Handler struct {
	narrator ContextResetter
}

func New(narrator ContextResetter) *Handler {
	return &Handler{narrator: narrator}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/llm/context/reset", h.handleContextReset)
}

func (h *Handler) handleContextReset(w http.ResponseWriter, r *http.Request) {
	if err := h.narrator.ResetContext(r.Context()); err != nil {
		log.Printf("[llm] context reset failed: %v", err)
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "Failed to reset context",
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "LLM context reset",
	})
}
