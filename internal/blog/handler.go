// AngelaMos | 2026
// handler.go

package blog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
	"github.com/carterperez-dev/brasil-no-mundo/internal/moderation"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	writeLimiter func(http.Handler) http.Handler,
) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListApproved)
		r.With(authenticator, writeLimiter).Post("/", h.Create)
	})
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPending)
		moderation.RegisterRoutes(r, h.service.Moderation())
	})
}

func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.List(domain.StatusApproved))
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.List(domain.StatusPending))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.JSONError(w, core.TokenMissingError())
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	req.Normalize()
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	core.Created(w, h.service.Create(r.Context(), claims.UserID, claims.Name, req))
}
