// AngelaMos | 2026
// handler.go

package moderation

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

// RegisterRoutes mounts POST {id}/approve and {id}/reject on r. The caller
// is expected to have applied the admin guard already.
func RegisterRoutes[T any](r chi.Router, m *Machine[T]) {
	r.Post("/{id}/approve", transitionHandler(m, m.Approve))
	r.Post("/{id}/reject", transitionHandler(m, m.Reject))
}

func transitionHandler[T any](
	m *Machine[T],
	fn func(ctx context.Context, actor Actor, id int64) (T, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			core.BadRequest(w, "invalid "+m.kind+" id")
			return
		}

		actor := Actor{
			UserID: middleware.GetUserID(r.Context()),
			Role:   middleware.GetUserRole(r.Context()),
		}

		item, err := fn(r.Context(), actor, id)
		if err != nil {
			core.HandleServiceError(w, err, m.kind)
			return
		}

		core.OK(w, item)
	}
}
