package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medibook/appointment-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Scheduler *scheduling.Scheduler
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Service catalogue and slot listing
	r.Get("/services", listServicesHandler(cfg.Scheduler))
	r.Post("/services", createServiceHandler(cfg.Scheduler))
	r.Delete("/services/{id}", deleteServiceHandler(cfg.Scheduler))
	r.Get("/services/{id}/slots", listSlotsHandler(cfg.Scheduler))

	// Practitioners and their weekly availability
	r.Get("/practitioners", listPractitionersHandler(cfg.Scheduler))
	r.Get("/practitioners/{id}/availability", listWindowsHandler(cfg.Scheduler))
	r.Put("/practitioners/{id}/availability", upsertWindowHandler(cfg.Scheduler))
	r.Delete("/availability/{id}", deleteWindowHandler(cfg.Scheduler))
	r.Get("/practitioners/{id}/bookings", practitionerBookingsHandler(cfg.Scheduler))
	r.Get("/practitioners/{id}/dashboard", practitionerDashboardHandler(cfg.Scheduler))

	// Booking flow
	r.Post("/bookings", createBookingHandler(cfg.Scheduler))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Scheduler))
	r.Post("/bookings/{id}/status", bookingStatusHandler(cfg.Scheduler))
	r.Post("/bookings/{id}/notes", bookingNotesHandler(cfg.Scheduler))
	r.Get("/patients/{id}/bookings", patientBookingsHandler(cfg.Scheduler))

	return r
}
