package routes

import (
	"github.com/kdange/portfolio/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes configures the assistant endpoint
func SetupChatRoutes(router *gin.RouterGroup, chat *handlers.ChatHandler, m *Middleware) {
	router.POST("/chat",
		m.ChatEnabled,
		m.Validation.ValidateChatRequest(),
		chat.Reply,
	)
}
