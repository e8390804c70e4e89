package rest

import (
	"net/http"

	"github.com/frahmantamala/employee-directory/internal/auth"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/department"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/internal/transport/middleware"
	"github.com/frahmantamala/employee-directory/internal/transport/swagger"
	"github.com/frahmantamala/employee-directory/internal/upload"
	"github.com/frahmantamala/employee-directory/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups the domain handlers mounted by RegisterAllRoutes.
type Handlers struct {
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	Employee   *employee.Handler
	Department *department.Handler
	Upload     *upload.Handler
	User       *user.Handler
	Health     *HealthHandler
}

type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	OpenAPIPath    string
	// RateLimit is nil when rate limiting is disabled.
	RateLimit *middleware.RateLimitConfig
}

func RegisterAllRoutes(router *chi.Mux, base *transport.BaseHandler, h Handlers, opts Options) {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware(base))
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.RateLimit != nil {
		router.Use(middleware.RateLimit(base, *opts.RateLimit))
	}

	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", openAPIHandler(opts.OpenAPIPath))
		router.Handle("/swagger/*", swagger.Handler())
	}

	if h.Upload != nil {
		router.Get("/uploads/{filename}", h.Upload.ServeFile)
	}

	router.Route(opts.APIPrefix, func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		r.Post("/login", h.Auth.Login)
		r.Post("/register", h.Auth.Register)

		if h.User != nil {
			r.With(h.Auth.AuthMiddleware).Get("/users/me", h.User.GetCurrentUser)
		}

		// Every route below needs a token and a role.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(h.RBAC.ResolveRole)

			pr.Route("/employees", func(er chi.Router) {
				er.Get("/", h.Employee.ListEmployees)
				er.Get("/{id}", h.Employee.GetEmployee)

				er.Group(func(mr chi.Router) {
					mr.Use(h.RBAC.RequireManager())
					mr.Post("/", h.Employee.CreateEmployee)
					mr.Put("/{id}", h.Employee.UpdateEmployee)
				})
			})

			pr.Route("/departments", func(dr chi.Router) {
				dr.Get("/", h.Department.GetDepartments)

				dr.Group(func(ar chi.Router) {
					ar.Use(h.RBAC.RequireAdmin())
					ar.Post("/", h.Department.CreateDepartment)
					ar.Put("/{id}", h.Department.UpdateDepartment)
					ar.Put("/{id}/employees/{employeeId}", h.Department.AddMember)
					ar.Delete("/{id}/employees/{employeeId}", h.Department.RemoveMember)
				})
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, base.Message(i18n.MsgRouteNotFound))
	})
}
