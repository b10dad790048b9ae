package routes

import (
	"net/http"

	"github.com/kdange/portfolio/internal/api/middleware"
	"github.com/kdange/portfolio/internal/logging"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// GlobalOptions tunes the middleware applied to every route
type GlobalOptions struct {
	AllowedOrigins []string
	Production     bool
	// Tracing adds otelgin spans under this service name when non-empty
	TracingService string
}

// Setup configures all route groups
func Setup(router *gin.Engine, h *Handlers, m *Middleware) {
	SetupPageRoutes(router, h.Page)
	SetupHealthRoutes(router, h.Health)

	api := router.Group("/api")

	SetupContactRoutes(api, h.Contact, m)
	SetupChatRoutes(api, h.Chat, m)
	SetupAdminRoutes(api, h.Admin, m)

	logging.GetGlobalLogger().Debug("All routes have been set up successfully")
}

// SetupGlobalMiddleware configures middleware that applies to all routes
func SetupGlobalMiddleware(router *gin.Engine, logger *logging.Logger, opts GlobalOptions) {
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	if opts.TracingService != "" {
		router.Use(otelgin.Middleware(opts.TracingService))
	}
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.SecurityHeaders(opts.Production))
}

// SetupMetricsRoutes exposes the Prometheus scrape endpoint
func SetupMetricsRoutes(router *gin.Engine, handler http.Handler) {
	router.GET("/metrics", gin.WrapH(handler))
}
