package router

import (
	"net/http"

	_ "pet-placement/docs"
	"pet-placement/internal/app"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/pets"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/projection"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/metrics"
	"pet-placement/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, se arma un grafo in-memory.
	Services *app.Services

	Metrics *metrics.Metrics // nil => sin /metrics
	Log     *zap.Logger
}

// @title Pet Placement API
// @version 1.0
// @description Workflow de placement: requests, respuestas de helpers y handover.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	svcs := opts.Services
	if svcs == nil {
		svcs = app.NewServices(app.Options{
			Stores:  app.MemoryStores(),
			Metrics: opts.Metrics,
			Log:     log,
		})
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log.Named("http"), opts.Metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas autenticadas
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthContext(opts.AuthVerifier, log.Named("auth")))

		pets.RegisterRoutes(r, svcs.Pets, log)
		helpers.RegisterRoutes(r, svcs.Helpers, log)
		placement.RegisterRoutes(r, svcs.Placement, log)
		responses.RegisterRoutes(r, svcs.Responses, log)
		transfers.RegisterRoutes(r, svcs.Transfers, log)
		timeline.RegisterRoutes(r, svcs.Timeline, svcs.Responses, log)
		projection.RegisterRoutes(r, svcs.Projection, log)
	})

	return r
}
