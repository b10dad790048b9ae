package routes

import (
	"github.com/kdange/portfolio/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupContactRoutes configures the contact form relay. The quota gate runs
// before validation so an exhausted quota answers 429 for any body.
func SetupContactRoutes(router *gin.RouterGroup, contact *handlers.ContactHandler, m *Middleware) {
	router.POST("/send-message",
		m.RateLimit,
		m.EmailQuota,
		m.Validation.ValidateContactRequest(),
		contact.Send,
	)
}
