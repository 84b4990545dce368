// Package server assembles the gin engine: middleware order, sessions and
// the route table for the JSON API and the server-rendered pages.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/config"
	"github.com/harentsoaR/dentaheal/internal/handlers"
	"github.com/harentsoaR/dentaheal/internal/middleware"
)

type Options struct {
	Config   *config.Config
	Handler  *handlers.Handler
	Resolver *auth.Resolver
	Registry *auth.Registry
	Log      zerolog.Logger
}

// NewRouter builds the engine. Identity resolution runs before the edge
// gate, and both run before any route handler.
func NewRouter(opts Options) (*gin.Engine, error) {
	cfg := opts.Config
	if opts.Registry.Protects(cfg.Auth.LoginPath) {
		return nil, fmt.Errorf("server: login path %q is inside a protected prefix", cfg.Auth.LoginPath)
	}

	tmpl, err := handlers.Templates()
	if err != nil {
		return nil, fmt.Errorf("server: parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Log))
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(sessions.Sessions(auth.SessionCookieName, sessionStore(cfg)))
	r.Use(middleware.ResolveIdentity(opts.Resolver))
	r.Use(middleware.EdgeGate(opts.Registry, opts.Resolver, cfg.Auth.LoginPath))

	registerRoutes(r, opts.Handler)
	return r, nil
}

func sessionStore(cfg *config.Config) sessions.Store {
	secret := cfg.Auth.SessionSecret
	if secret == "" {
		// Only reachable outside release mode; see config.Validate.
		secret = "dentaheal-dev-session-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Auth.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func registerRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/health", h.Liveness)
	r.GET("/health/ready", h.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/logout", h.Logout)
	}

	api := r.Group("/api")
	api.Use(middleware.RequireIdentity())
	{
		api.GET("/me", h.GetCurrentUser)
		api.PUT("/me", h.UpdateCurrentUser)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)

		api.GET("/appointments", h.GetAppointments)
		api.POST("/appointments", h.CreateAppointment)
		api.PUT("/appointments/:id", h.UpdateAppointment)
		api.PATCH("/appointments/:id/cancel", h.CancelAppointment)

		admin := api.Group("")
		admin.Use(middleware.RequireRole("Forbidden. Admin access required.", auth.RoleAdmin))
		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.PATCH("/users/:id/deactivate", h.DeactivateUser)
		admin.PATCH("/users/:id/activate", h.ActivateUser)
		admin.PUT("/users/:id/role", h.ChangeUserRole)
		admin.POST("/users/:id/reset-password", h.ResetUserPassword)
		admin.GET("/audit-logs", h.ListAuditLogs)
	}

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.LoginSubmit)
	r.POST("/logout", h.LogoutSubmit)

	r.GET("/dashboard3", h.DashboardPage)
	r.GET("/dashboard3/settings", h.SettingsPage)
	r.GET("/dashboard3/users", h.UsersPage)
	r.GET("/account", h.AccountPage)
}
