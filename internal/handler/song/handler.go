package song

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionservice "songteller/internal/service/session"
	"songteller/internal/service/teller"
	"songteller/pkg/utils"
)

// Teller is the slice of the orchestrator the song endpoint needs.
type Teller interface {
	AddSong(artist, title string) (sessionservice.AddResult, error)
}

// Handler accepts song reports from the radio automation.
type Handler struct {
	teller Teller
}

func New(teller Teller) *Handler {
	return &Handler{teller: teller}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/song", h.handleAddSong)
}

func (h *Handler) handleAddSong(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Artist string `json:"artist"`
		Title  string `json:"title"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid or missing JSON data provided")
		return
	}

	result, err := h.teller.AddSong(payload.Artist, payload.Title)
	switch {
	case errors.Is(err, teller.ErrProcessing):
		utils.RespondError(w, http.StatusConflict, "Session is currently being processed")
	case errors.Is(err, sessionservice.ErrEmptyArtist), errors.Is(err, sessionservice.ErrEmptyTitle):
		utils.RespondError(w, http.StatusBadRequest, "Both artist and title are required")
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	case result.Added:
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":      "success",
			"message":     "Song added",
			"total_songs": result.Total,
		})
	default:
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":      "skipped",
			"message":     "Song already in session",
			"total_songs": result.Total,
		})
	}
}
