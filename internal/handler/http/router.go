package http

import (
	"io"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	AllowedOrigins []string
	LogLevel       slog.Level
	// LogOutput defaults to stdout.
	LogOutput io.Writer
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	scheduleHandler ScheduleHandler,
	assignmentHandler AssignmentHandler,
	planHandler PlanHandler,
) *chi.Mux {
	r := chi.NewRouter()

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
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

		// Requires authentication and a company
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireCompany)

			r.Route("/schedules", func(r chi.Router) {

				// Reads
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionScheduleView))
					r.Get("/templates", scheduleHandler.ListTemplates)
					r.Get("/templates/{templateID}", scheduleHandler.GetTemplate)
					r.Get("/templates/{templateID}/exceptions", scheduleHandler.ListExceptions)

					r.Get("/assignments", assignmentHandler.ListAssignments)
					r.Get("/assignments/{assignmentID}", assignmentHandler.GetAssignment)
					r.Get("/employees/{employeeID}/assignments", assignmentHandler.ListEmployeeAssignments)

					r.Get("/plan", planHandler.GetPlan)
					r.Get("/plan/range", planHandler.GetPlanRange)
				})

				// Template maintenance
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/templates", scheduleHandler.CreateTemplate)
					r.Put("/templates/{templateID}", scheduleHandler.UpdateTemplate)
					r.Delete("/templates/{templateID}", scheduleHandler.DeleteTemplate)

					r.Put("/templates/{templateID}/days/{weekday}", scheduleHandler.UpsertWeeklyDay)
					r.Post("/templates/{templateID}/replicar-dia-base", scheduleHandler.ReplicateDay)
					r.Put("/days/{dayID}/blocks", scheduleHandler.UpsertDayBlocks)
					r.Post("/days/{dayID}/reset", scheduleHandler.ResetDay)

					r.Put("/templates/{templateID}/exceptions/{date}", scheduleHandler.UpsertException)
					r.Delete("/exceptions/{exceptionID}", scheduleHandler.DeleteException)
					r.Put("/exceptions/{exceptionID}/blocks", scheduleHandler.UpsertExceptionBlocks)

					r.Post("/templates/{templateID}/recalculate", scheduleHandler.Recalculate)
				})

				// Assignment maintenance
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAssignManage))
					r.Post("/assignments", assignmentHandler.Assign)
					r.Put("/assignments/{assignmentID}", assignmentHandler.UpdateAssignment)
					r.Delete("/assignments/{assignmentID}", assignmentHandler.DeleteAssignment)
					r.Post("/employees/{employeeID}/unassign", assignmentHandler.Unassign)
				})
			})
		})
	})
	return r
}
