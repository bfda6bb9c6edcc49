// AngelaMos | 2026
// handler.go

package site

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

type UpdateSettingsRequest struct {
	Logo     *string `json:"logo"      validate:"omitempty,max=500"`
	SiteName *string `json:"site_name" validate:"omitempty,min=1,max=100"`
}

func (r UpdateSettingsRequest) ToPatch() domain.SettingsPatch {
	return domain.SettingsPatch{Logo: r.Logo, SiteName: r.SiteName}
}

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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.Get)
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/settings", h.Update)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.Settings())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	settings := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.ToPatch(),
	)
	core.OK(w, settings)
}
