package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/kdange/portfolio/internal/api/dto/common"
	"github.com/kdange/portfolio/internal/api/dto/v1/chat"
	"github.com/kdange/portfolio/internal/api/dto/v1/contact"
	"github.com/kdange/portfolio/internal/service"
	"github.com/kdange/portfolio/internal/utils"

	"github.com/gin-gonic/gin"
)

// EmailQuotaGate rejects contact submissions once the email limit is
// reached, before the body is even looked at
func EmailQuotaGate(contacts *service.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reached, err := contacts.LimitReached(c.Request.Context())
		if err != nil {
			utils.HandleAPIError(c, err, http.StatusInternalServerError, contact.MessageSendFailed)
			return
		}
		if reached {
			abortWithMessage(c, http.StatusTooManyRequests, contact.MessageLimitReached)
			return
		}
		c.Next()
	}
}

// RequireChat answers 503 when no LLM provider key was configured
func RequireChat(chats *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !chats.Enabled() {
			abortWithMessage(c, http.StatusServiceUnavailable, chat.MessageUnavailable)
			return
		}
		c.Next()
	}
}

// RequireAdminToken guards a route with a static bearer token. An empty token
// leaves the route open.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			abortWithMessage(c, http.StatusUnauthorized, common.MessageUnauthorized)
			return
		}
		c.Next()
	}
}
