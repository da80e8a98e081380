package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/followup-core/internal/infra/http/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string
	Persons        *PersonHandler
	FollowUps      *FollowUpHandler
	Messages       *MessageHandler
	Health         *HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
	}))

	r.Get("/health", cfg.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Post("/persons", cfg.Persons.Create)
		r.Post("/persons/{personID}/followups", cfg.FollowUps.Schedule)
		r.Post("/persons/{personID}/checkins", cfg.FollowUps.Checkin)
		r.Post("/followups/{followupID}/complete", cfg.FollowUps.Complete)
		r.Post("/messages", cfg.Messages.Send)
		r.Get("/usage", cfg.Messages.Usage)
	})

	return r
}
