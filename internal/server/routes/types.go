package routes

import (
	"github.com/kdange/portfolio/internal/api/handlers"
	"github.com/kdange/portfolio/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers contains all the route handlers
type Handlers struct {
	Page    *handlers.PageHandler
	Health  *handlers.HealthHandler
	Contact *handlers.ContactHandler
	Chat    *handlers.ChatHandler
	Admin   *handlers.AdminHandler
}

// Middleware contains all the route-level middleware
type Middleware struct {
	Validation  *middleware.ValidationMiddleware
	RateLimit   gin.HandlerFunc
	EmailQuota  gin.HandlerFunc
	ChatEnabled gin.HandlerFunc
	AdminToken  gin.HandlerFunc
}
