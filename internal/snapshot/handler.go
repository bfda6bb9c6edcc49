// AngelaMos | 2026
// handler.go

package snapshot

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

type Source interface {
	Snapshot(includeStats bool) store.Snapshot
}

// Handler serves the hydration snapshot clients load on start and after a
// realtime reconnect.
type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// RegisterRoutes expects optionalAuth to attach claims when a valid
// session cookie is present and to pass anonymous requests through.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.With(optionalAuth).Get("/state", h.State)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	core.OK(w, h.source.Snapshot(middleware.IsAdmin(r.Context())))
}
