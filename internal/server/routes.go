// AngelaMos | 2026
// routes.go

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/brasil-no-mundo/internal/admin"
	"github.com/carterperez-dev/brasil-no-mundo/internal/auth"
	"github.com/carterperez-dev/brasil-no-mundo/internal/billing"
	"github.com/carterperez-dev/brasil-no-mundo/internal/blog"
	"github.com/carterperez-dev/brasil-no-mundo/internal/chat"
	"github.com/carterperez-dev/brasil-no-mundo/internal/directory"
	"github.com/carterperez-dev/brasil-no-mundo/internal/meetup"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
	"github.com/carterperez-dev/brasil-no-mundo/internal/site"
	"github.com/carterperez-dev/brasil-no-mundo/internal/snapshot"
	"github.com/carterperez-dev/brasil-no-mundo/internal/user"
)

type Handlers struct {
	Auth      *auth.Handler
	Snapshot  *snapshot.Handler
	Chat      *chat.Handler
	Meetups   *meetup.Handler
	Directory *directory.Handler
	Blog      *blog.Handler
	Billing   *billing.Handler
	Site      *site.Handler
	Admin     *admin.Handler
	Users     *user.Handler
	Realtime  http.Handler
}

type Guards struct {
	Authenticator func(http.Handler) http.Handler
	OptionalAuth  func(http.Handler) http.Handler
	WriteLimiter  func(http.Handler) http.Handler
}

// MountAPI registers every /api route. Everything under /api/admin sits
// behind the authenticator and the admin role check.
func (s *Server) MountAPI(h Handlers, g Guards) {
	if g.WriteLimiter == nil {
		g.WriteLimiter = func(next http.Handler) http.Handler { return next }
	}

	s.router.Route("/api", func(r chi.Router) {
		h.Auth.RegisterRoutes(r, g.Authenticator)
		h.Snapshot.RegisterRoutes(r, g.OptionalAuth)
		h.Chat.RegisterRoutes(r, g.Authenticator)
		h.Meetups.RegisterRoutes(r, g.Authenticator, g.WriteLimiter)
		h.Directory.RegisterRoutes(r, g.Authenticator, g.WriteLimiter)
		h.Blog.RegisterRoutes(r, g.Authenticator, g.WriteLimiter)
		h.Billing.RegisterRoutes(r, g.Authenticator)
		h.Site.RegisterRoutes(r)
		h.Users.RegisterRoutes(r, g.Authenticator)

		r.With(g.OptionalAuth).Get("/realtime", h.Realtime.ServeHTTP)

		r.Route("/admin", func(r chi.Router) {
			r.Use(g.Authenticator)
			r.Use(middleware.RequireAdmin)

			h.Admin.RegisterAdminRoutes(r)
			h.Directory.RegisterAdminRoutes(r)
			h.Blog.RegisterAdminRoutes(r)
			h.Billing.RegisterAdminRoutes(r)
			h.Site.RegisterAdminRoutes(r)
			h.Users.RegisterAdminRoutes(r)
		})
	})
}
