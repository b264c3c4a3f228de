package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/hermes"
	"github.com/arunkumarkundra/choicease/internal/metrics"
	"github.com/arunkumarkundra/choicease/internal/store"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

// NewRouter builds the API. s and h may be nil: without a store the saved
// decision routes are not mounted, and without h no events are published.
func NewRouter(s store.Store, h hermes.Client, a *analysis.Analyzer, wm *whatif.Manager, m *metrics.Metrics, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	analyze := NewAnalyzeHandler(a, m)
	whatIf := NewWhatIfHandler(wm, s, h, m, logger)
	admin := NewAdminHandler(a, wm)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", analyze.Analyze)
		r.Post("/weights/normalize", analyze.Normalize)

		r.Route("/whatif", func(r chi.Router) {
			r.Use(whatIf.trackSessions)
			r.Post("/", whatIf.Create)
			r.Get("/{id}", whatIf.Get)
			r.Put("/{id}/weights", whatIf.SetWeights)
			r.Post("/{id}/reset", whatIf.Reset)
			r.Delete("/{id}", whatIf.Delete)
		})

		if s != nil {
			decisions := NewDecisionsHandler(s, h, a, m, logger)
			r.Post("/decisions", decisions.Create)
			r.Get("/decisions", decisions.List)
			r.Get("/decisions/{id}", decisions.Get)
			r.Put("/decisions/{id}", decisions.Update)
			r.Post("/decisions/{id}/analyze", decisions.Analyze)
			r.Get("/decisions/{id}/analyses", decisions.Analyses)

			r.Group(func(r chi.Router) {
				r.Use(AdminAuthMiddleware(adminToken))
				r.Delete("/decisions/{id}", decisions.Delete)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/stats", admin.Stats)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
