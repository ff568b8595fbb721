package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	redisclient "github.com/auralis-health/clinical-console/internal/redis"
)

type Server struct {
	store  Store
	locker redisclient.Locker
	log    zerolog.Logger
}

type RouterConfig struct {
	Store      Store
	Locker     redisclient.Locker
	Log        zerolog.Logger
	Env        string
	Version    string
	HealthDeps map[string]Pinger
}

func NewRouter(cfg RouterConfig) http.Handler {
	srv := &Server{
		store:  cfg.Store,
		locker: cfg.Locker,
		log:    cfg.Log.With().Str("component", "devserver").Logger(),
	}
	if srv.locker == nil {
		srv.locker = NewMutexLocker()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(srv.log))

	health := NewHealthHandler(cfg.HealthDeps, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/appointments", srv.listSessions)
	r.Post("/appointments", srv.bookSession)
	r.Put("/appointments/{id}", srv.updateSession)

	r.Get("/patients", srv.listPatients)
	r.Post("/patients", srv.admitPatient)
	r.Get("/patients/{id}", srv.getPatient)
	r.Put("/patients/{id}", srv.updatePatient)
	r.Get("/patients/{id}/vitals", srv.listVitals)
	r.Post("/patients/{id}/vitals", srv.addVitals)
	r.Get("/patients/{id}/diagnosis", srv.listDiagnoses)
	r.Post("/patients/{id}/diagnosis", srv.addDiagnosis)
	r.Get("/patients/{id}/bills", srv.listBills)
	r.Post("/patients/{id}/bills", srv.addBill)
	r.Get("/patients/{id}/timeline", srv.patientTimeline)

	r.Get("/doctors", srv.listDoctors)
	r.Post("/doctors", srv.createDoctor)
	r.Get("/doctors/{id}", srv.getDoctor)
	r.Put("/doctors/{id}", srv.updateDoctor)
	r.Get("/doctors/{id}/reviews", srv.listReviews)
	r.Post("/doctors/{id}/reviews", srv.addReview)

	r.Get("/admin/users", srv.listUsers)
	r.Delete("/admin/users/{id}", srv.deleteUser)
	r.Get("/admin/stats", srv.adminStats)

	return r
}
