// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

type Handler struct {
	service   *Service
	cookies   *CookieManager
	jwks      http.HandlerFunc
	validator *validator.Validate
}

func NewHandler(
	service *Service,
	cookies *CookieManager,
	jwt *JWTManager,
) *Handler {
	return &Handler{
		service:   service,
		cookies:   cookies,
		jwks:      jwt.JWKSHandler(),
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Post("/refresh", h.Refresh)
		r.Get("/jwks.json", h.jwks)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	session, err := h.service.Login(r.Context(), req, r.UserAgent(), extractIPAddress(r))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("invalid email or password"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.cookies.SetSession(w, session)
	core.OK(w, ToUserResponse(session.User))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	session, err := h.service.Register(r.Context(), req, r.UserAgent(), extractIPAddress(r))
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.JSONError(w, core.DuplicateError("email"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.cookies.SetSession(w, session)
	core.Created(w, ToUserResponse(session.User))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), h.cookies.RefreshToken(r)); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.cookies.Clear(w)
	core.OK(w, nil)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := h.cookies.RefreshToken(r)
	if token == "" {
		core.JSONError(w, core.TokenMissingError())
		return
	}

	session, err := h.service.Refresh(r.Context(), token, r.UserAgent(), extractIPAddress(r))
	if err != nil {
		h.cookies.Clear(w)

		switch {
		case errors.Is(err, ErrTokenReuse):
			core.JSONError(w, core.NewAppError(
				core.ErrTokenRevoked,
				"security alert: token reuse detected, all sessions revoked",
				http.StatusForbidden,
				"TOKEN_REUSE_DETECTED",
			))
		case errors.Is(err, core.ErrTokenExpired):
			core.JSONError(w, core.TokenExpiredError())
		case errors.Is(err, core.ErrTokenRevoked):
			core.JSONError(w, core.TokenRevokedError())
		case errors.Is(err, core.ErrTokenInvalid):
			core.JSONError(w, core.TokenInvalidError())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	h.cookies.SetSession(w, session)
	core.OK(w, ToUserResponse(session.User))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.JSONError(w, core.TokenMissingError())
		return
	}

	core.OK(w, ToMeResponse(claims))
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.cookies.Clear(w)
	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.GetActiveSessions(
		r.Context(),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		core.BadRequest(w, "session ID required")
		return
	}

	err := h.service.RevokeSession(
		r.Context(),
		middleware.GetUserID(r.Context()),
		sessionID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "session")
			return
		}
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot revoke another user's session")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("current password is incorrect"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.cookies.Clear(w)
	core.NoContent(w)
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
