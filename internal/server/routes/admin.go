package routes

import (
	"github.com/kdange/portfolio/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes configures operator routes
func SetupAdminRoutes(router *gin.RouterGroup, admin *handlers.AdminHandler, m *Middleware) {
	router.POST("/reset-email-count", m.AdminToken, admin.ResetEmailCount)
}
