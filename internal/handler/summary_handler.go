package handler

import (
	"errors"
	"net/http"

	"meditalk-go/internal/service"
	"meditalk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SummaryHandler 负责会话小结的 API 请求。
type SummaryHandler struct {
	summaryService service.SummaryService
}

// NewSummaryHandler 创建一个新的 SummaryHandler 实例。
func NewSummaryHandler(summaryService service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// Generate 为会话生成（或重新生成）小结。仅医生可执行。
func (h *SummaryHandler) Generate(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.summaryService.Generate(c.Request.Context(), conversationID, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "会话不存在",
			})
		case errors.Is(err, service.ErrNothingToSummarize):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": err.Error(),
			})
		default:
			log.Errorf("GenerateSummary: Failed for conversation %d, error: %v", conversationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "生成小结失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Summary generated",
		"data":    summary,
	})
}

// Get 返回会话的小结，仅参与者可见。
func (h *SummaryHandler) Get(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.summaryService.Get(conversationID, user.ID)
	if err != nil {
		status := http.StatusNotFound
		message := "小结不存在"
		if errors.Is(err, service.ErrConversationNotFound) {
			message = "会话不存在"
		}
		c.JSON(status, gin.H{"code": status, "message": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": summary, "message": "success"})
}
