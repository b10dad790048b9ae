package handlers

import (
	"errors"
	"net/http"

	"github.com/kdange/portfolio/internal/api/constants"
	"github.com/kdange/portfolio/internal/api/dto/common"
	"github.com/kdange/portfolio/internal/api/dto/v1/chat"
	"github.com/kdange/portfolio/internal/service"
	"github.com/kdange/portfolio/internal/utils"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// Reply forwards the visitor's message to the LLM and returns its answer
func (h *ChatHandler) Reply(c *gin.Context) {
	chatData, exists := c.Get(constants.ContextKeyChat)
	if !exists {
		utils.HandleAPIError(c, nil, http.StatusInternalServerError, common.MessageInternalError)
		return
	}

	req, ok := chatData.(*chat.ChatRequest)
	if !ok {
		utils.HandleAPIError(c, nil, http.StatusInternalServerError, common.MessageInternalError)
		return
	}

	answer, err := h.chats.Reply(c.Request.Context(), req.Message)
	switch {
	case errors.Is(err, service.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, common.NewErrorResponse(chat.MessageUnavailable))
		return
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(chat.MessageRequired))
		return
	case err != nil:
		utils.HandleAPIError(c, err, http.StatusInternalServerError, chat.MessageFailed)
		return
	}

	utils.HandleSuccess(c, answer)
}
