package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/invoicebox/internal/http/account"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/admin"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/dashboard"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/guard"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/payment"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type Options struct {
	CORSOrigins   []string
	RateLimit     int
	StrictHeaders bool
	Timeout       time.Duration
}

type Handlers struct {
	Account   *account.Handler
	Invoices  *invoice.Handler
	Payments  *payment.Handler
	Dashboard *dashboard.Handler
	Admin     *admin.Handler
}

func New(opts Options, tokens guard.TokenVerifier, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Use(guard.SecureHeaders(opts.StrictHeaders))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	authn := guard.Authenticate(tokens)
	limit := guard.RateLimit(opts.RateLimit)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Use(middleware.AllowContentType("application/json"))
				h.Account.PublicRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn, limit)
				h.Account.SessionRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn, limit)

			r.Route("/users", h.Account.UserRoutes)

			r.Route("/invoices", func(r chi.Router) {
				h.Invoices.Routes(r)

				r.Group(func(r chi.Router) {
					r.Use(guard.RequireRole(user.RoleProvider))
					h.Invoices.ProviderRoutes(r)
				})
			})

			r.Route("/payments", h.Payments.Routes)

			r.Route("/dashboard", h.Dashboard.Routes)

			r.Route("/admin", func(r chi.Router) {
				r.Use(guard.RequireRole(user.RoleAdmin))
				h.Admin.Routes(r)
			})
		})
	})

	return router
}
