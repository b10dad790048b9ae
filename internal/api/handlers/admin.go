package handlers

import (
	"net/http"

	"github.com/kdange/portfolio/internal/api/dto/common"
	"github.com/kdange/portfolio/internal/api/dto/v1/contact"
	"github.com/kdange/portfolio/internal/logging"
	"github.com/kdange/portfolio/internal/service"
	"github.com/kdange/portfolio/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles operator endpoints
type AdminHandler struct {
	contacts *service.ContactService
}

func NewAdminHandler(contacts *service.ContactService) *AdminHandler {
	return &AdminHandler{contacts: contacts}
}

// ResetEmailCount sets the email counter to zero. No body is read.
func (h *AdminHandler) ResetEmailCount(c *gin.Context) {
	if err := h.contacts.ResetCount(c.Request.Context()); err != nil {
		utils.HandleAPIError(c, err, http.StatusInternalServerError, common.MessageInternalError)
		return
	}

	logging.GetGlobalLogger().Info("Email count reset from %s", utils.GetRealIP(c))
	utils.HandleSuccess(c, contact.MessageCountReset)
}
