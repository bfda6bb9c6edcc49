// AngelaMos | 2026
// handler.go

package billing

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
	r.Get("/plans", h.ListPlans)

	r.Route("/payments", func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/create-order", h.CreateOrder)
		r.Post("/capture-order", h.CaptureOrder)
	})
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/plans", h.ReplacePlans)
	r.Get("/transactions", h.ListTransactions)
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.Plans())
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	order, err := h.service.CreateOrder(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.PlanID,
	)
	if err != nil {
		core.HandleServiceError(w, err, "plan")
		return
	}

	core.OK(w, order)
}

func (h *Handler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	var req CaptureOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	res, err := h.service.CaptureOrder(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.HandleServiceError(w, err, "order")
		return
	}

	core.OK(w, res)
}

func (h *Handler) ReplacePlans(w http.ResponseWriter, r *http.Request) {
	var req ReplacePlansRequest
	if err := json.NewDecoder(r.Body).Decode(&req.Plans); err != nil {
		core.BadRequest(w, "request body must be an array of plans")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	plans, err := h.service.ReplacePlans(r.Context(), req.Plans)
	if err != nil {
		core.HandleServiceError(w, err, "plan")
		return
	}

	core.OK(w, plans)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			core.BadRequest(w, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	txs, err := h.service.Ledger(r.Context(), limit)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, txs)
}
