package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func tokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}

type RouterOptions struct {
	Env            string
	Version        string
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(
	JWTService jwt.Service,
	opts RouterOptions,
	attendanceHandler AttendanceHandler,
	lateHandler LateHandler,
	payrollHandler PayrollHandler,
	deviceHandler DeviceHandler,
	employeeHandler EmployeeHandler,
	holidayHandler HolidayHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-timekeeping"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// EventSource cannot send headers, so the stream also takes ?token=.
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, tokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireManager)
			r.Get("/stream/attendance", attendanceHandler.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequireManager).Post("/punches", attendanceHandler.RecordPunch)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", attendanceHandler.ListMonth)
					r.With(middleware.RequireManager).Put("/punches", attendanceHandler.CorrectPunches)
					r.Get("/{date}", attendanceHandler.GetDay)
				})
			})

			r.Route("/lates", func(r chi.Router) {
				r.Post("/", lateHandler.File)
				r.Get("/", lateHandler.List)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/settings", lateHandler.GetSettings)
					r.Put("/settings", lateHandler.UpdateSettings)
					r.Get("/deductions/{employeeID}/{month}", lateHandler.PreviewDeductions)
					r.Get("/report/{month}", lateHandler.Report)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", lateHandler.Get)
						r.Put("/status", lateHandler.SetStatus)
						r.Delete("/", lateHandler.Delete)
					})
				})
			})

			r.Route("/payrolls", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/generate", payrollHandler.GeneratePayroll)
				r.Get("/", payrollHandler.ListPayrolls)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetPayroll)
					r.Put("/status", payrollHandler.SetStatus)
					r.Get("/payslip", payrollHandler.Payslip)
					r.Post("/adjustments", payrollHandler.AddAdjustment)
					r.Delete("/adjustments/{adjustmentID}", payrollHandler.RemoveAdjustment)
				})
			})

			r.Route("/devices", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/sync", deviceHandler.Sync)
				r.Post("/logs", deviceHandler.PushLogs)
			})

			r.Route("/employees", func(r chi.Router) {
				r.With(middleware.RequireManager).Post("/migrate-leave-buckets", employeeHandler.MigrateLeaveBuckets)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", employeeHandler.GetEmployee)
					r.With(middleware.RequireManager).Post("/deactivate", employeeHandler.DeactivateEmployee)
				})
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", holidayHandler.List)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/", holidayHandler.Create)
					r.Delete("/{id}", holidayHandler.Delete)
				})
			})
		})
	})
	return r
}
