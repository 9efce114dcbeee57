package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reversion/internal/api/handlers"
	"reversion/internal/api/middleware"
	"reversion/internal/config"
	"reversion/internal/repository"
)

// Dependencies wires the thin control/health HTTP surface. Unlike the
// teacher's Dependencies (one field per CRUD service backing a dashboard),
// this surface reads and writes through exactly two repositories: the spec
// draws a hard line against growing a query/read API here.
type Dependencies struct {
	Commands *repository.ControlCommandRepository
	Health   *repository.HealthCheckRepository
	Security config.SecurityConfig
}

// SetupRoutes builds the router for /healthz, /metrics, and
// POST /control/{command}. Every mutating route sits behind ControlAuth;
// /healthz and /metrics do not, so an external prober can poll them freely.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if deps != nil && deps.Health != nil {
		healthHandler := handlers.NewHealthHandler(deps.Health)
		router.HandleFunc("/healthz", healthHandler.GetHealthz).Methods(http.MethodGet)
	}

	if deps != nil && deps.Commands != nil {
		controlHandler := handlers.NewControlHandler(deps.Commands)
		control := router.PathPrefix("/control").Subrouter()
		control.Use(middleware.ControlAuth(deps.Security.ControlSecretHash))
		control.HandleFunc("/{command}", controlHandler.PostCommand).Methods(http.MethodPost)
	}

	return router
}
