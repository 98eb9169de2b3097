package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tee-studio/internal/config"
	"tee-studio/internal/handler"
	"tee-studio/internal/metrics"
	"tee-studio/internal/middleware"
	"tee-studio/internal/model"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Design  *handler.DesignHandler
	View    *handler.ViewHandler
	Docs    *handler.DocsHandler
	Health  *handler.HealthHandler
}

type Guards struct {
	Auth *middleware.AuthMiddleware
	View *middleware.ViewGuard
}

// New wires the HTTP surface. uploads may be nil when objects are served
// from an external bucket.
func New(cfg *config.Config, guards Guards, handlers Handlers, m *metrics.Metrics, uploads http.Handler) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, cfg.TrustProxyHeaders)
	requireAuth := guards.Auth.RequireAuth

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(m.Instrument)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", handlers.Health.Check)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Get("/openapi.yaml", handlers.Docs.OpenAPI)
	r.Get("/swagger", handlers.Docs.SwaggerUI)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", handlers.Auth.Register)
			auth.Post("/login", handlers.Auth.Login)
			auth.Post("/refresh", handlers.Auth.Refresh)
			auth.With(requireAuth).Post("/logout", handlers.Auth.Logout)
			auth.With(requireAuth).Get("/session", handlers.Auth.Session)
		})

		api.Get("/users/{userId}", handlers.User.Get)

		api.With(requireAuth).Post("/upload", handlers.Product.Upload)
		api.With(requireAuth, guards.Auth.RequireRoles(model.RoleAdmin)).Get("/admin/products", handlers.Product.ListAll)

		api.With(requireAuth).Post("/designs", handlers.Design.Create)
		api.With(requireAuth).Get("/designs", handlers.Design.List)
	})

	if uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", uploads))
	}

	r.Get("/", handlers.View.Index)
	r.With(guards.View.RequireSession).Get("/home", handlers.View.Index)
	r.With(guards.View.RequireSession, guards.View.RequireRole(model.RoleAdmin)).Get("/admin", handlers.View.Index)
	r.Get("/*", handlers.View.Assets)

	return r
}
