package handlers

import (
	"net/http"

	"github.com/kdange/portfolio/internal/service"
	"github.com/kdange/portfolio/internal/utils"
	"github.com/kdange/portfolio/internal/version"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	contacts *service.ContactService
	chats    *service.ChatService
}

func NewHealthHandler(contacts *service.ContactService, chats *service.ChatService) *HealthHandler {
	return &HealthHandler{contacts: contacts, chats: chats}
}

type healthStatus struct {
	Version     string               `json:"version"`
	ChatEnabled bool                 `json:"chat_enabled"`
	EmailQuota  *service.QuotaStatus `json:"email_quota,omitempty"`
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := healthStatus{
		Version:     version.Version,
		ChatEnabled: h.chats.Enabled(),
	}

	quota, err := h.contacts.QuotaStatus(c.Request.Context())
	if err != nil {
		utils.HandleAPIError(c, err, http.StatusServiceUnavailable, "Email quota store unavailable.")
		return
	}
	status.EmailQuota = &quota

	utils.HandleData(c, "OK", status)
}
