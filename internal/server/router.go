package server

import (
	"net/http"

	"github.com/cloo-solutions/docsmith/internal/api/handlers"
	"github.com/cloo-solutions/docsmith/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

const defaultMaxBodyBytes int64 = 50 * 1024 * 1024

type RouterConfig struct {
	// APIToken guards /api. Empty disables the check.
	APIToken     string
	MaxBodyBytes int64

	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
	GenerateHandler *handlers.GenerateHandler
	StatusHandler   *handlers.StatusHandler
	UIHandler       *handlers.UIHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", handlers.Health)

	if cfg.UIHandler != nil {
		r.Get("/", cfg.UIHandler.Index)
		r.Route("/ui", func(r chi.Router) {
			r.Post("/upload", cfg.UIHandler.Upload)
			r.Post("/confluence", cfg.UIHandler.Confluence)
			r.Post("/search", cfg.UIHandler.Search)
			r.Post("/generate", cfg.UIHandler.Generate)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.APIToken))

		r.Get("/status", cfg.StatusHandler.Status)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/pdf", cfg.DocumentHandler.UploadPDFs)
			r.Post("/confluence", cfg.DocumentHandler.IngestConfluence)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
		})

		r.Post("/search", cfg.SearchHandler.Search)
		r.Post("/generate", cfg.GenerateHandler.Generate)
		r.Post("/generate/markdown", cfg.GenerateHandler.Markdown)
	})

	return r
}
