package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Attendance AttendanceHandler
	Rule       RuleHandler
	QRCode     QRCodeHandler
	Absence    AbsenceHandler
	PayRun     PayRunHandler
}

func NewRouter(logger *slog.Logger, allowedOrigins []string, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", h.Attendance.List)
				r.Post("/check-in", h.Attendance.CheckIn)
				r.Post("/check-out", h.Attendance.CheckOut)
				r.Post("/scan", h.QRCode.Scan)
				r.Get("/{id}", h.Attendance.Get)

				// Manager only
				r.With(middleware.RequireManager).Put("/{id}/validate", h.Attendance.Validate)
			})

			r.Route("/attendance-rules", func(r chi.Router) {
				r.Get("/", h.Rule.Get)
				r.With(middleware.RequireManager).Put("/", h.Rule.Upsert)
			})

			r.Route("/employees/{id}/qr-token", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/", h.QRCode.Generate)
				r.Post("/rotate", h.QRCode.Regenerate)
			})

			r.Route("/absences", func(r chi.Router) {
				r.Post("/", h.Absence.Request)
				r.Get("/{id}", h.Absence.Get)
				r.With(middleware.RequireManager).Post("/{id}/decision", h.Absence.Decide)
			})

			r.Route("/payruns", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/", h.PayRun.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.PayRun.Get)
					r.Get("/bulletins", h.PayRun.ListBulletins)
					r.Post("/generate", h.PayRun.Generate)
					r.Post("/submit", h.PayRun.Submit)
					r.Post("/decision", h.PayRun.Decide)
					r.Post("/payments", h.PayRun.ProcessPayments)
				})
			})

			r.Route("/payroll-policy", func(r chi.Router) {
				r.With(middleware.RequireManager).Get("/", h.PayRun.GetPolicy)
				r.With(middleware.RequireOwner).Put("/", h.PayRun.UpdatePolicy)
			})
		})
	})
	return r
}
