package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"songteller/internal/handler/events"
	"songteller/internal/handler/llm"
	"songteller/internal/handler/session"
	"songteller/internal/handler/song"
	middlewarePkg "songteller/internal/middleware"
	narratorservice "songteller/internal/service/narrator"
	"songteller/internal/service/teller"
	"songteller/pkg/utils"
)

// NewRouter wires HTTP routes to the orchestrator and the LLM service.
func NewRouter(tellerSvc *teller.Service, narratorSvc *narratorservice.Service, hub *events.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	songHandler := song.New(tellerSvc)
	sessionHandler := session.New(tellerSvc)
	llmHandler := llm.New(narratorSvc)

	r.Route("/api", func(api chi.Router) {
		songHandler.RegisterRoutes(api)
		sessionHandler.RegisterRoutes(api)
		llmHandler.RegisterRoutes(api)

		if hub != nil {
			events.NewHandler(hub).RegisterRoutes(api)
		}

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
