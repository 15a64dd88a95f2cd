package handler

import (
	"errors"
	"net/http"

	"meditalk-go/internal/service"
	"meditalk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// MessageHandler 负责处理会话内消息的 API 请求。
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler 创建一个新的 MessageHandler 实例。
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
type SendMessageRequest struct {
	Text      string `json:"text" binding:"required"`
	Translate bool   `json:"translate"`
}

// Send 在会话中发送一条消息。
// translate 为 true 时会按发送者角色推导翻译方向，翻译失败自动降级为原文。
func (h *MessageHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：text 不能为空",
		})
		return
	}

	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), conversationID, user, req.Text, req.Translate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": err.Error(),
			})
		case errors.Is(err, service.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "会话不存在",
			})
		case errors.Is(err, service.ErrConversationEnded):
			c.JSON(http.StatusConflict, gin.H{
				"code":    http.StatusConflict,
				"message": err.Error(),
			})
		default:
			log.Errorf("SendMessage: Failed to send message in conversation %d, error: %v", conversationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "发送消息失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Message sent",
		"data":    msg,
	})
}

// List 按时间升序返回会话的全部消息。
func (h *MessageHandler) List(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	views, err := h.messageService.List(conversationID, user.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "会话不存在",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": views, "message": "success"})
}
