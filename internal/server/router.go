package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loomnotes/loom/internal/api"
	"github.com/loomnotes/loom/internal/api/handlers"
	"github.com/loomnotes/loom/internal/api/middleware"
)

type RouterConfig struct {
	JWTSecret        []byte
	IdentityResolver middleware.IdentityResolver
	SearchHandler    *handlers.SearchHandler
	DocumentHandler  *handlers.DocumentHandler
	HandoverHandler  *handlers.HandoverHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.JWTSecret, cfg.IdentityResolver))

		r.Post("/search", cfg.SearchHandler.Search)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Create)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
		})

		r.Route("/handovers", func(r chi.Router) {
			r.Post("/", cfg.HandoverHandler.Create)
			r.Get("/", cfg.HandoverHandler.List)
			r.Get("/{id}", cfg.HandoverHandler.Get)
			r.Patch("/{id}", cfg.HandoverHandler.UpdateStatus)
			r.Delete("/{id}", cfg.HandoverHandler.Delete)
		})
	})

	return r
}
