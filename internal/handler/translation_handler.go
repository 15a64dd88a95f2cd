package handler

import (
	"errors"
	"net/http"

	"meditalk-go/internal/service"
	"meditalk-go/pkg/translator"

	"github.com/gin-gonic/gin"
)

// TranslationHandler 负责翻译预览与语言列表的 API 请求。
type TranslationHandler struct {
	messageService service.MessageService
}

// NewTranslationHandler 创建一个新的 TranslationHandler 实例。
func NewTranslationHandler(messageService service.MessageService) *TranslationHandler {
	return &TranslationHandler{messageService: messageService}
}

// PreviewRequest 定义了翻译预览 API 的请求体结构。
// SourceLang 为空时由翻译服务自动检测。
type PreviewRequest struct {
	Text       string `json:"text" binding:"required"`
	TargetLang string `json:"targetLang" binding:"required"`
	SourceLang string `json:"sourceLang"`
}

// Preview 对一段文本做一次独立翻译，用于发送前预览译文。
func (h *TranslationHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：text 和 targetLang 不能为空",
		})
		return
	}

	result, err := h.messageService.Preview(c.Request.Context(), req.Text, req.TargetLang, req.SourceLang)
	if err != nil {
		// 本地校验错误是 400，服务侧失败统一 502，错误文本可直接展示
		status := http.StatusBadGateway
		if errors.Is(err, translator.ErrEmptyText) || errors.Is(err, translator.ErrTextTooLong) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"code": status, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}

// Languages 返回翻译服务支持的语言清单。
func (h *TranslationHandler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"data":    translator.SupportedLanguages(),
		"message": "success",
	})
}
