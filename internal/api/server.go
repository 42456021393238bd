// Package api exposes the services and appointments collections over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"cardoctor/server/internal/store"
	"cardoctor/server/internal/token"
)

const banner = "<h1 style='text-align: center;'>Welcome to Car Doctor Server</h1>"

// serviceProjection is the field set returned by GET /api/services/{id}
// when projection is enabled.
var serviceProjection = []string{"title", "img", "service_id", "price"}

type Options struct {
	Store  *store.Store
	Tokens *token.Service
	Logger *slog.Logger

	// ServiceProjection limits single-service lookups to serviceProjection.
	ServiceProjection bool
	// Hardened requires a token on the admin routes and answers 404 for
	// unknown appointment ids instead of leaving the request open.
	Hardened bool

	BodyLimit   int64
	CORSOrigins []string
}

type Server struct {
	store      *store.Store
	tokens     *token.Service
	logger     *slog.Logger
	projection bool
	hardened   bool
	bodyLimit  int64
	origins    []string
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.BodyLimit
	if limit <= 0 {
		limit = 100 << 10
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		store:      opts.Store,
		tokens:     opts.Tokens,
		logger:     logger,
		projection: opts.ServiceProjection,
		hardened:   opts.Hardened,
		bodyLimit:  limit,
		origins:    origins,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(WithRequestID)
	r.Use(middleware.RealIP)
	r.Use(WithAccessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
	}).Handler)

	r.Get("/", s.home)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Post("/jwt", s.issueToken)

	r.Route("/api", func(r chi.Router) {
		r.Get("/services", s.listServices)
		r.Get("/services/{id}", s.getService)
		r.Post("/services", s.createService)

		r.With(s.requireToken).Get("/appointments", s.listAppointmentsByEmail)
		r.Post("/appointments", s.createAppointment)
		r.Delete("/appointments/{id}", s.deleteAppointment)

		r.Group(func(r chi.Router) {
			if s.hardened {
				r.Use(s.requireToken)
			}
			r.Get("/admin/appointments", s.listAllAppointments)
			r.Put("/admin/appointments/{id}", s.approveAppointment)
		})
	})
	return r
}

func (s *Server) home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(banner))
}
