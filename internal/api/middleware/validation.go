package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/kdange/portfolio/internal/api/constants"
	"github.com/kdange/portfolio/internal/api/dto/common"
	"github.com/kdange/portfolio/internal/api/dto/v1/chat"
	"github.com/kdange/portfolio/internal/api/dto/v1/contact"
	"github.com/kdange/portfolio/internal/api/validation"

	"github.com/gin-gonic/gin"
)

// ValidationMiddleware binds and validates request bodies, storing the
// result in the gin context for the handler
type ValidationMiddleware struct{}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware() *ValidationMiddleware {
	validation.RegisterGinValidators()
	return &ValidationMiddleware{}
}

// ValidateContactRequest validates a contact form submission. Missing fields
// are reported before a malformed email address.
func (m *ValidationMiddleware) ValidateContactRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contact.ContactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errs := validation.FormatValidationError(err)
			switch {
			case errors.Is(err, io.EOF), validation.HasTag(errs, "required"):
				abortWithMessage(c, http.StatusBadRequest, contact.MessageMissingField)
			case validation.HasTag(errs, "looseemail"):
				abortWithMessage(c, http.StatusBadRequest, contact.MessageInvalidEmail)
			default:
				abortWithMessage(c, http.StatusBadRequest, common.MessageInvalidBody)
			}
			return
		}

		c.Set(constants.ContextKeyContact, &req)
		c.Next()
	}
}

// ValidateChatRequest validates a chat message
func (m *ValidationMiddleware) ValidateChatRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chat.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errs := validation.FormatValidationError(err)
			if errors.Is(err, io.EOF) || validation.HasTag(errs, "required") {
				abortWithMessage(c, http.StatusBadRequest, chat.MessageRequired)
			} else {
				abortWithMessage(c, http.StatusBadRequest, common.MessageInvalidBody)
			}
			return
		}

		c.Set(constants.ContextKeyChat, &req)
		c.Next()
	}
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, common.NewErrorResponse(message))
}
