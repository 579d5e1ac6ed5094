package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/courtline/courtline/internal/reporting"
	"github.com/courtline/courtline/internal/sepa"
	"github.com/courtline/courtline/internal/settlement"
	"github.com/courtline/courtline/internal/training"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	TrainingHandler   *training.Handler
	SettlementHandler *settlement.Handler
	ReportingHandler  *reporting.Handler
	SEPAHandler       *sepa.Handler
}

// NewRouter constructs the chi.Router with Courtline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/trainings", params.TrainingHandler.MountRoutes)
	r.Route("/payments", params.SettlementHandler.MountRoutes)
	r.Route("/reports", params.ReportingHandler.MountRoutes)
	r.Route("/sepa", params.SEPAHandler.MountRoutes)

	return r
}
