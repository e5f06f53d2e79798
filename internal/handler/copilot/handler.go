package copilot

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	model "github.com/sensihi/copilot/internal/model/copilot"
	copilotService "github.com/sensihi/copilot/internal/service/copilot"
	"github.com/sensihi/copilot/pkg/utils"
)

const (
	throttleMessage      = "You're sending messages too quickly. Please wait a moment and try again."
	sessionCapMessage    = "This conversation has reached its message limit. Please start a new session to continue."
	configErrorMessage   = "Server configuration error. Please try again later."
	internalErrorMessage = "Copilot is temporarily unavailable. Please try again shortly."
)

// Handler exposes the copilot orchestrator over HTTP.
type Handler struct {
	svc *copilotService.Service
}

// New creates the copilot handler.
func New(svc *copilotService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the copilot endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/copilot", h.handleTurn)
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.SessionID) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message and sessionId are required")
		return
	}

	resp, err := h.svc.Run(r.Context(), req, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, copilotService.ErrRateLimited):
			utils.RespondMessage(w, http.StatusTooManyRequests, throttleMessage)
		case errors.Is(err, copilotService.ErrSessionLimit):
			utils.RespondMessage(w, http.StatusTooManyRequests, sessionCapMessage)
		case errors.Is(err, copilotService.ErrNotConfigured):
			log.Printf("[copilot] request refused: %v", err)
			utils.RespondMessage(w, http.StatusInternalServerError, configErrorMessage)
		default:
			log.Printf("[copilot] turn failed: %v", err)
			utils.RespondMessage(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// clientIP trusts chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
