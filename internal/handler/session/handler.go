package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionmodel "songteller/internal/model/session"
	"songteller/internal/service/teller"
	"songteller/pkg/utils"
)

// Teller is the slice of the orchestrator the session endpoints need.
type Teller interface {
	Status() sessionmodel.Snapshot
	Reset(ctx context.Context, opts teller.ResetOptions) (teller.ResetOutcome, error)
}

// Handler serves session status and reset.
type Handler struct {
	teller Teller
}

func New(teller Teller) *Handler {
	return &Handler{teller: teller}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/reset", h.handleReset)
	r.Get("/session/status", h.handleStatus)
}

type resetResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	SongsProcessed int    `json:"songs_processed"`
	Narrative      string `json:"narrative,omitempty"`
	TTSError       string `json:"tts_error,omitempty"`
}

// handleReset drains the session. Both flags default to true when the
// body omits them, so an empty POST runs the full pipeline.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Process          *bool `json:"process"`
		PlayOpeningAudio *bool `json:"play_opening_audio"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON data provided")
		return
	}

	opts := teller.ResetOptions{Process: true, PlayOpeningAudio: true}
	if payload.Process != nil {
		opts.Process = *payload.Process
	}
	if payload.PlayOpeningAudio != nil {
		opts.PlayOpeningAudio = *payload.PlayOpeningAudio
	}

	outcome, err := h.teller.Reset(r.Context(), opts)
	if errors.Is(err, teller.ErrProcessing) {
		utils.RespondError(w, http.StatusConflict, "Session reset already in progress")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := resetResponse{
		Status:         "success",
		Message:        "Session reset",
		SongsProcessed: outcome.SongsProcessed,
	}
	switch {
	case outcome.LLMErr != nil:
		resp.Message = fmt.Sprintf("Session reset (narrative generation failed: %v)", outcome.LLMErr)
	case outcome.TTSErr != nil:
		resp.Message = "Session reset (speech synthesis failed)"
		resp.Narrative = outcome.Narrative
		resp.TTSError = outcome.TTSErr.Error()
	default:
		resp.Narrative = outcome.Narrative
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.teller.Status())
}
