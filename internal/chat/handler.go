// AngelaMos | 2026
// handler.go

package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

type SendRequest struct {
	Text string `json:"text"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes exposes the chat history and an HTTP fallback for sending
// when a client cannot hold a websocket open.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/chat/messages", func(r chi.Router) {
		r.Get("/", h.History)
		r.With(authenticator).Post("/", h.Send)
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.History())
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.JSONError(w, core.TokenMissingError())
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	msg, err := h.service.Send(r.Context(), claims.Name, req.Text)
	if err != nil {
		core.HandleServiceError(w, err, "message")
		return
	}

	core.Created(w, msg)
}
