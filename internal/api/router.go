package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/servicedesk/session-gateway/internal/api/handler"
	"github.com/servicedesk/session-gateway/internal/api/middleware"
	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/core/ports"
	"github.com/servicedesk/session-gateway/internal/session"
	"github.com/servicedesk/session-gateway/internal/upstream"
)

// RouterConfig carries the assembled collaborators into the HTTP surface.
// Audit, Mongo, and Redis may be nil when the gateway runs without those
// dependencies; the affected routes and probes degrade accordingly.
type RouterConfig struct {
	Runtime   *session.Runtime
	Client    *upstream.Client
	Audit     ports.AuthEventRepository
	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("session_gateway"))
	e.Use(middleware.Session(cfg.Runtime, cfg.JWTSecret))

	sessionHandler := handler.NewSessionHandler(cfg.Runtime, cfg.Client, cfg.Log)
	settingsHandler := handler.NewSettingsHandler(cfg.Runtime, cfg.Client)
	pageHandler := handler.NewPageHandler(cfg.Runtime)

	// --- Session lifecycle ---
	e.POST("/session/signin", sessionHandler.SignIn)
	e.POST("/session/signout", sessionHandler.SignOut)
	e.GET("/session", sessionHandler.Current)

	// --- Settings (any authenticated principal) ---
	settings := e.Group("/session/settings",
		middleware.Guard(middleware.GuardJSON, domain.AllRoles...))
	settings.GET("", settingsHandler.Get)
	settings.PUT("", settingsHandler.Update)

	// --- Audit trail (superadmin only) ---
	if cfg.Audit != nil {
		auditHandler := handler.NewAuditHandler(cfg.Audit)
		e.GET("/session/audit", auditHandler.Recent,
			middleware.Guard(middleware.GuardJSON, domain.RoleSuperadmin))
	}

	// --- Backend passthrough (any authenticated principal) ---
	proxyHandler := handler.NewProxyHandler(cfg.Client, "/api")
	e.Any("/api/*", proxyHandler.Forward,
		middleware.Guard(middleware.GuardJSON, domain.AllRoles...))

	// --- Navigation entry points (browser semantics: redirects, not JSON errors) ---
	e.GET(session.SignInRoute, pageHandler.SignIn)
	e.GET(session.DashboardRoute, pageHandler.Dashboard,
		middleware.Guard(middleware.GuardRedirect, domain.AllRoles...))
	e.GET("/admin", pageHandler.Admin,
		middleware.Guard(middleware.GuardRedirect, domain.RoleSuperadmin))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.Mongo, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
