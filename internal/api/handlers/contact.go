package handlers

import (
	"errors"
	"net/http"

	"github.com/kdange/portfolio/internal/api/constants"
	"github.com/kdange/portfolio/internal/api/dto/common"
	"github.com/kdange/portfolio/internal/api/dto/v1/contact"
	"github.com/kdange/portfolio/internal/service"
	"github.com/kdange/portfolio/internal/utils"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contacts *service.ContactService
}

func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

func (h *ContactHandler) Send(c *gin.Context) {
	// Get contact data from context (set by validation middleware)
	contactData, exists := c.Get(constants.ContextKeyContact)
	if !exists {
		utils.HandleAPIError(c, nil, http.StatusInternalServerError, common.MessageInternalError)
		return
	}

	req, ok := contactData.(*contact.ContactRequest)
	if !ok {
		utils.HandleAPIError(c, nil, http.StatusInternalServerError, common.MessageInternalError)
		return
	}

	err := h.contacts.Submit(c.Request.Context(), service.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	switch {
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, common.NewErrorResponse(contact.MessageLimitReached))
		return
	case err != nil:
		utils.HandleAPIError(c, err, http.StatusInternalServerError, contact.MessageSendFailed)
		return
	}

	utils.HandleSuccess(c, contact.MessageSent)
}
