/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend
  5. Identify:   User identity, on /api/me and /api/scenarios only

ROUTE GROUPS:
  /healthz              Store connectivity
  /api/cost             Cost preview, anonymous
  /api/me/*             Current user's quota, balance and periods
  /api/scenarios/*      Demo scenarios for the current user

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Identify middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Auth           *Authenticator
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if opts.Auth == nil {
		opts.Auth = NewAuthenticator("", true)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderUserID},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cost", h.GetCost)

		r.Group(func(r chi.Router) {
			r.Use(opts.Auth.Identify)

			r.Route("/me", func(r chi.Router) {
				r.Get("/balance", h.GetBalance)
				r.Get("/quota", h.GetQuota)
				r.Put("/quota", h.PutQuota)

				r.Route("/periods", func(r chi.Router) {
					r.Get("/", h.ListPeriods)
					r.Post("/", h.CreatePeriod)
					r.Post("/preview", h.PreviewPeriod)
					r.Put("/{id}", h.UpdatePeriod)
					r.Delete("/{id}", h.DeletePeriod)
				})
			})

			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Post("/load", h.LoadScenario)
			})
		})
	})

	return r
}
