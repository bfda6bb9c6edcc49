// AngelaMos | 2026
// handler.go

package directory

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
	r.Route("/businesses", func(r chi.Router) {
		r.Get("/", h.ListApproved)
		r.With(authenticator, writeLimiter).Post("/", h.Submit)
	})
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/businesses", func(r chi.Router) {
		r.Get("/", h.ListByStatus)
		moderation.RegisterRoutes(r, h.service.Moderation())
	})
}

func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.List(domain.StatusApproved))
}

func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	switch status {
	case "":
		status = domain.StatusPending
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		core.BadRequest(w, "status must be pending, approved or rejected")
		return
	}

	core.OK(w, h.service.List(status))
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.JSONError(w, core.TokenMissingError())
		return
	}

	var req SubmitBusinessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	req.Normalize()
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	b, err := h.service.Submit(r.Context(), Submitter{
		UserID: claims.UserID,
		Role:   claims.Role,
		Tier:   claims.Tier,
	}, req)
	if err != nil {
		core.HandleServiceError(w, err, "business")
		return
	}

	core.Created(w, b)
}
