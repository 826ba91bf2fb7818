package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/byvoula/salon-booking-service/internal/booking"
)

type RouterConfig struct {
	Scheduler *booking.Scheduler
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)

	r.Get("/health/live", livenessHandler(cfg.Env, cfg.Version))
	r.Get("/health/ready", readinessHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version))

	// Catalog endpoints
	r.Get("/services", listServicesHandler(cfg.Scheduler))
	r.Post("/services", createServiceHandler(cfg.Scheduler))
	r.Get("/employees", listEmployeesHandler(cfg.Scheduler))
	r.Put("/employees/{id}/schedule", replaceScheduleHandler(cfg.Scheduler))

	// Availability (read path) and appointments (write path)
	r.Get("/employees/{id}/availability", availabilityHandler(cfg.Scheduler))
	r.Post("/appointments", createAppointmentHandler(cfg.Scheduler))
	r.Get("/appointments", listAppointmentsHandler(cfg.Scheduler))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduler))
	r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Scheduler))

	// Admin dashboard
	r.Get("/dashboard/summary", dashboardHandler(cfg.Scheduler))

	return r
}
