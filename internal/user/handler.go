// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
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
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
	})
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
		r.Put("/{userID}/tier", h.UpdateUserTier)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleServiceError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateMe(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.HandleServiceError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Tier:     r.URL.Query().Get("tier"),
	}
	params.Normalize()

	users, total := h.service.ListUsers(r.Context(), params)

	core.OK(w, UserListResponse{
		Users:    ToUserResponseList(users),
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.HandleServiceError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateUserRole(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		core.HandleServiceError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateUserTier(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateUserTier(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		req.Tier,
	)
	if err != nil {
		core.HandleServiceError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
