// Package router sets up all HTTP routes and middleware chains for the
// KBPress server. It organizes routes into public and admin groups
// with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kbpress/internal/handlers"
	"kbpress/internal/middleware"
	"kbpress/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. The two rate limiters cover the abuse
// surfaces: credential guessing on login and oversized or repeated
// uploads on import.
func New(
	sessionStore *session.Store,
	auth *handlers.Auth,
	admin *handlers.Admin,
	public *handlers.Public,
	loginLimiter *middleware.RateLimiter,
	importLimiter *middleware.RateLimiter,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth.
	r.Get("/health", healthHandler)

	// Admin API.
	r.Route("/admin", func(r chi.Router) {
		// Auth endpoints — accessible without a session.
		r.With(loginLimiter.Middleware).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/dashboard", admin.Dashboard)

			// Categories
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", admin.CategoriesList)
				r.Get("/tree", admin.CategoryTree)
				r.Post("/", admin.CategoryCreate)
				r.Put("/{id}", admin.CategoryUpdate)
				r.Delete("/{id}", admin.CategoryDelete)
			})

			// Documents
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", admin.DocumentsList)
				r.Post("/", admin.DocumentCreate)
				r.Get("/{id}", admin.DocumentGet)
				r.Put("/{id}", admin.DocumentUpdate)
				r.Delete("/{id}", admin.DocumentDelete)
			})

			// Bulk import — admin only.
			r.Route("/import", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.With(importLimiter.Middleware).Post("/", admin.ImportUpload)
				r.Get("/jobs", admin.ImportJobsList)
				r.Get("/jobs/{id}", admin.ImportJobGet)
			})

			// User management — admin only.
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", admin.UsersList)
				r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
			})
		})
	})

	// Public knowledge-base routes.
	r.Route("/kb", func(r chi.Router) {
		r.Get("/categories", public.CategoryTree)
		r.Get("/categories/{slug}", public.Category)
		r.Get("/{slug}", public.Document)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
