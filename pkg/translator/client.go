// Package translator 提供了一个与外部文本翻译服务交互的客户端。
// 当前实现对接 MyMemory 免费翻译接口。
package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"meditalk-go/internal/config"
	"meditalk-go/pkg/log"
)

// MaxTextLength 是单次翻译允许的最大字符数，超出则直接拒绝，不发起网络请求。
const MaxTextLength = 2000

// defaultBaseURL 是 MyMemory 翻译接口的默认地址。
const defaultBaseURL = "https://api.mymemory.translated.net/get"

// 本地校验错误，未通过校验的请求不会产生任何网络调用。
var (
	ErrEmptyText   = errors.New("no text provided for translation")
	ErrTextTooLong = fmt.Errorf("text exceeds maximum length of %d characters", MaxTextLength)
)

// Result 是一次成功翻译的归一化结果。
type Result struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// Gateway 定义了翻译网关的接口。
type Gateway interface {
	// Translate 执行一次翻译。传输错误、超时或接口层面的失败都以 error 形式返回，
	// 错误信息为可直接展示的文本。
	Translate(ctx context.Context, text, targetLang, sourceLang string) (*Result, error)
	// TranslateText 是 Translate 的降级包装：成功返回译文，任何失败只记录日志并
	// 原样返回输入文本，调用方始终能拿到可展示的字符串。
	TranslateText(ctx context.Context, text, targetLang, sourceLang string) string
}

type myMemoryClient struct {
	baseURL string
	email   string
	client  *http.Client
}

// NewClient 根据配置创建一个翻译网关实例。
func NewClient(cfg config.TranslationConfig) Gateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := 5 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &myMemoryClient{
		baseURL: baseURL,
		email:   cfg.Email,
		client:  &http.Client{Timeout: timeout},
	}
}

// myMemoryResponse 对应 MyMemory 接口的响应体。
// responseStatus 为 200 表示成功，其余情况 responseDetails 携带错误描述。
type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

// Translate 校验输入后向翻译服务发起一次 GET 请求。
// 每次调用相互独立：无重试、无缓存、无限流。
func (c *myMemoryClient) Translate(ctx context.Context, text, targetLang, sourceLang string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if len([]rune(text)) > MaxTextLength {
		return nil, ErrTextTooLong
	}

	if sourceLang == "" {
		sourceLang = "auto"
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", fmt.Sprintf("%s|%s", sourceLang, targetLang))
	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("translation service error: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			log.Warnf("[Translator] 翻译请求超时, target: %s", targetLang)
			return nil, errors.New("translation service timeout, please try again")
		}
		log.Errorf("[Translator] 调用翻译服务失败, error: %v", err)
		return nil, fmt.Errorf("translation service error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[Translator] 翻译服务返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("translation service error: unexpected status %s", resp.Status)
	}

	var body myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Errorf("[Translator] 解析翻译服务响应失败, error: %v", err)
		return nil, fmt.Errorf("translation service error: %v", err)
	}

	// 响应体内还有一层应用级状态码，非 200 同样视为失败
	if status, err := body.ResponseStatus.Int64(); err != nil || status != 200 {
		detail := body.ResponseDetails
		if detail == "" {
			detail = "translation failed"
		}
		log.Warnf("[Translator] 翻译服务应用层失败: %s", detail)
		return nil, errors.New(detail)
	}

	sourceReported := sourceLang
	if sourceLang == "auto" {
		sourceReported = "auto-detected"
	}

	return &Result{
		OriginalText:   text,
		TranslatedText: body.ResponseData.TranslatedText,
		SourceLanguage: sourceReported,
		TargetLanguage: targetLang,
	}, nil
}

// TranslateText 失败时降级为原文，永不向调用方抛出错误。
func (c *myMemoryClient) TranslateText(ctx context.Context, text, targetLang, sourceLang string) string {
	result, err := c.Translate(ctx, text, targetLang, sourceLang)
	if err != nil {
		log.Warnf("[Translator] 翻译失败，使用原文降级: %v", err)
		return text
	}
	return result.TranslatedText
}

// isTimeout 判断传输错误是否为超时。
func isTimeout(err error) bool {
	if os.IsTimeout(err) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	return false
}
