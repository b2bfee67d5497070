package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/herald/internal/httpserver/mw"
)

// apiTimeout covers a full gateway round trip with retries.
const apiTimeout = 25 * time.Second

func init() { Register(registerAnnouncements) }

func registerAnnouncements(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        4096,
		TrustProxy:        d.TrustProxy,
		Now:               d.TimeNow,
	})

	r.Route("/api/announcements", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))

		// long-lived, no request timeout
		r.Get("/stream", handlers.Stream(d))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(apiTimeout))

			r.Get("/", handlers.ListAnnouncements(d))
			r.Get("/unread-count", handlers.UnreadCount(d))
			r.Get("/{id}", handlers.GetAnnouncement(d))

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/mark-read", handlers.MarkRead(d))
				r.Post("/{id}/archive", handlers.Archive(d))
				r.Patch("/{id}/snooze", handlers.Snooze(d))
				r.Delete("/{id}", handlers.Delete(d))
			})
		})
	})
}
