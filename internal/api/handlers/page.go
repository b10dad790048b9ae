package handlers

import (
	"net/http"

	"github.com/kdange/portfolio/internal/service"

	"github.com/gin-gonic/gin"
)

// PageHandler renders the portfolio page
type PageHandler struct {
	chats *service.ChatService
}

func NewPageHandler(chats *service.ChatService) *PageHandler {
	return &PageHandler{chats: chats}
}

func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"ChatEnabled": h.chats.Enabled(),
	})
}
