package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/invoicer/internal/http/assist"
	"github.com/MrJamesThe3rd/invoicer/internal/http/client"
	"github.com/MrJamesThe3rd/invoicer/internal/http/export"
	"github.com/MrJamesThe3rd/invoicer/internal/http/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/http/ratelimit"
)

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
	// AssistWindow is the minimum gap between assist calls per address.
	AssistWindow time.Duration
}

func New(
	opts Options,
	invoiceV1 *invoice.Handler,
	exportV1 *export.Handler,
	clientsV1 *client.Handler,
	assistV1 *assist.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	limiter := ratelimit.New(opts.AssistWindow)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/invoice", func(r chi.Router) {
			invoiceV1.Routes(r)
			exportV1.Routes(r)
		})

		r.Route("/clients", clientsV1.Routes)

		r.With(limiter.Middleware, middleware.AllowContentType("application/json")).
			Post("/ai-fill", assistV1.Fill)
	})

	return router
}
