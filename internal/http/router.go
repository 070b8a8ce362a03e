package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docquery/internal/handlers"
	"docquery/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Documents       service.DocumentService
	Generate        service.GenerateService
	Answerer        handlers.Answerer
	Quota           handlers.QuotaReporter
	IndexHealth     handlers.HealthChecker
	GeneratorHealth handlers.HealthChecker

	MaxUploadBytes int64
	DefaultOCR     bool
	// RateLimitRPS of zero disables per-client throttling.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	documents := handlers.NewDocumentsHandler(deps.Documents, deps.MaxUploadBytes, deps.DefaultOCR)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.IndexHealth, deps.GeneratorHealth))

		r.Route("/v1", func(r chi.Router) {
			if deps.RateLimitRPS > 0 {
				r.Use(NewRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst).Middleware)
			}

			r.Method(http.MethodGet, "/quota", handlers.NewQuotaHandler(deps.Quota))
			r.Method(http.MethodPost, "/generate", handlers.NewGenerateHandler(deps.Generate))
			r.Get("/stats", documents.Coverage)

			r.Route("/documents", func(r chi.Router) {
				r.Post("/", documents.Upload)
				r.Get("/", documents.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", documents.Get)
					r.Delete("/", documents.Delete)
					r.Get("/stats", documents.Stats)
					r.Get("/glossary", documents.Glossary)
					r.Get("/topics", documents.Topics)
					r.Get("/pages/{page}", documents.Page)
					r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.Answerer))
				})
			})
		})
	})

	return r
}
