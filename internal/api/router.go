package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
	"github.com/iammorganparry/clive/apps/regression/internal/store"
)

// AnalysisService is the remote service as seen by the router.
type AnalysisService interface {
	lifecycle.Backend
	HealthChecker
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	db *store.DB,
	history *store.HistoryStore,
	service AnalysisService,
	plots *plot.Cache,
	apiKey string,
	maxUploadBytes int64,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	var recorder lifecycle.Recorder
	if history != nil {
		recorder = history
	}
	workbenches := NewWorkbenches(service, recorder, logger)

	// Handlers
	healthH := NewHealthHandler(db, service, workbenches)
	workbenchH := NewWorkbenchHandler(workbenches, maxUploadBytes)
	resultsH := NewResultsHandler(workbenches, plots)
	historyH := NewHistoryHandler(history)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Get("/history", historyH.List)

		r.Route("/workbenches", func(r chi.Router) {
			r.Get("/", workbenchH.List)
			r.Post("/", workbenchH.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", workbenchH.Get)
				r.Delete("/", workbenchH.Delete)

				r.Post("/upload", workbenchH.Upload)
				r.Delete("/session", workbenchH.Discard)

				r.Get("/selection", workbenchH.Selection)
				r.Put("/selection/dependent", workbenchH.SetDependent)
				r.Post("/selection/toggle", workbenchH.ToggleIndependent)

				r.Post("/analyze", workbenchH.Analyze)
				r.Post("/back", workbenchH.Back)
				r.Post("/report", workbenchH.Report)

				r.Get("/summary", resultsH.Summary)
				r.Get("/plots/{name}", resultsH.Plot)
				r.Get("/dashboard", resultsH.Dashboard)
			})
		})
	})

	return r
}
