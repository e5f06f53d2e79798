package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	copilotHandler "github.com/sensihi/copilot/internal/handler/copilot"
	"github.com/sensihi/copilot/internal/middleware"
	copilotService "github.com/sensihi/copilot/internal/service/copilot"
	"github.com/sensihi/copilot/pkg/utils"
)

// NewRouter wires HTTP routes to the copilot orchestrator.
func NewRouter(svc *copilotService.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))

	copilotHandler.New(svc).RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
