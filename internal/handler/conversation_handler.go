package handler

import (
	"errors"
	"net/http"
	"strconv"

	"meditalk-go/internal/model"
	"meditalk-go/internal/service"
	"meditalk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 负责处理会话编排相关的 API 请求。
type ConversationHandler struct {
	convService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(convService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// StartConversationRequest 定义了发起会诊 API 的请求体结构。
// Mode 为空时发现已有 active 会话会返回 409，由前端选择 continue 或 restart。
type StartConversationRequest struct {
	PatientID       uint   `json:"patientId" binding:"required"`
	PatientLanguage string `json:"patientLanguage"`
	Title           string `json:"title"`
	Mode            string `json:"mode"`
}

// Start 由医生发起一次会诊。
func (h *ConversationHandler) Start(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("StartConversation: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：patientId 不能为空",
		})
		return
	}

	doctor := currentUser(c)
	if doctor == nil {
		return
	}

	conv, err := h.convService.StartConsultation(c.Request.Context(),
		doctor, req.PatientID, req.PatientLanguage, req.Title, req.Mode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActiveConversation):
			// 已有 active 会话时把它返回给前端，由前端决定 continue 还是 restart
			c.JSON(http.StatusConflict, gin.H{
				"code":    http.StatusConflict,
				"message": err.Error(),
				"data":    conv,
			})
		case errors.Is(err, service.ErrPatientNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
		default:
			log.Errorf("StartConversation: Failed to start consultation, error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "发起会诊失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Consultation started",
		"data":    conv,
	})
}

// List 返回当前用户可见的会话列表，支持 ?q= 子串搜索。
func (h *ConversationHandler) List(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	term := c.Query("q")
	items := h.convService.List(user.ID, user.Role, term)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": items, "message": "success"})
}

// GetByID 返回单个会话的详情，仅参与者可见。
func (h *ConversationHandler) GetByID(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.convService.GetByID(conversationID, user.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "会话不存在",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": detail, "message": "success"})
}

// End 结束一个会话。结束后不能发送新消息，也不能恢复。
func (h *ConversationHandler) End(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	err := h.convService.End(c.Request.Context(), conversationID, user.ID)
	if err != nil {
		switch {
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
			log.Errorf("EndConversation: Failed to end conversation %d, error: %v", conversationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "结束会话失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Consultation ended",
	})
}

// currentUser 从上下文中取出 AuthMiddleware 注入的用户，取不到时直接写 500。
func currentUser(c *gin.Context) *model.User {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
		return nil
	}
	return user
}

// pathID 解析路径中的数字 ID，非法时写 400 并返回 false。
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 ID 参数",
		})
		return 0, false
	}
	return uint(id), true
}
