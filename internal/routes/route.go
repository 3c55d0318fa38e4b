package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"utm-bknd/internal/airspace"
	"utm-bknd/internal/auth"
	"utm-bknd/internal/config"
	"utm-bknd/internal/handlers"
	"utm-bknd/internal/logger"
	mdlwr "utm-bknd/internal/middleware"
	"utm-bknd/internal/services"
)

func NewRouter(
	adm *services.AdmissionService,
	border *airspace.Border,
	zones *airspace.ZoneRegistry,
	cfg *config.Config,
	logr *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// CORS middleware with config
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Authority token verification; the key is optional in development, the
	// authority endpoints just stay unmounted without it.
	var authMW *mdlwr.AuthMiddleware
	if jwtMgr, err := auth.NewJWTManager(cfg.JWTPublicKeyPath, cfg.JWTIssuer); err != nil {
		logr.Warn("authority endpoints disabled, no usable JWT public key", zap.Error(err))
	} else {
		authMW = mdlwr.NewAuthMiddleware(jwtMgr, logr.Logger)
	}

	flightHandler := handlers.NewFlightHandler(adm, logr.Logger)
	airspaceHandler := handlers.NewAirspaceHandler(border, zones, logr.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		if err != nil {
			return
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/flights", func(r chi.Router) {
			r.Post("/", flightHandler.SubmitFlight)
			r.Get("/", flightHandler.ListFlights)
			r.Get("/candidates", flightHandler.GetConflictCandidates)

			r.Get("/{id}", flightHandler.GetFlightByID)
			r.Post("/{id}/cancel", flightHandler.CancelFlight)

			if authMW != nil {
				r.Group(func(r chi.Router) {
					r.Use(authMW.RequireAuthority)
					r.Post("/{id}/approve", flightHandler.ApproveFlight)
				})
			}
		})

		r.Route("/airspace", func(r chi.Router) {
			r.Get("/zones", airspaceHandler.GetZones)

			if authMW != nil {
				r.Group(func(r chi.Router) {
					r.Use(authMW.RequireAuthority)
					r.Post("/tick", flightHandler.TickAirspace)
				})
			}
		})

	})

	return r
}
