package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-docchat/internal/app"
	"gopherai-docchat/internal/transport/http/response"
)

type ChatHandler struct {
	chat *app.ChatService
}

type SendMessageRequest struct {
	Question string `json:"question" binding:"required"`
}

func NewChatHandler(chat *app.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chat.SendMessage(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		respondError(c, err, "send message failed")
		return
	}
	response.OK(c, result)
}
