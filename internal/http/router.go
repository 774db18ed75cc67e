package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chatvault/internal/handlers"
	"chatvault/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Library service.LibraryService
	Imports service.ImportService
	DB      handlers.Pinger
	// AllowPartial is the import mode used when a request does not set one.
	AllowPartial bool
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	threads := handlers.NewThreadsHandler(deps.Library)
	jobs := handlers.NewJobsHandler(deps.Library)
	pages := handlers.NewPagesHandler(deps.Library)
	health := handlers.NewHealthHandler(deps.DB)

	r.Method(http.MethodGet, "/healthz", health)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", health)
		r.Get("/threads", threads.List)
		r.Get("/threads/{id}", threads.Get)
		r.Get("/jobs", jobs.List)
		r.Get("/jobs/{id}", jobs.Get)
		r.Method(http.MethodPost, "/imports", handlers.NewImportHandler(deps.Imports, deps.AllowPartial))
	})

	r.Get("/", pages.Library)
	r.Get("/threads/{id}", pages.Thread)

	return r
}
