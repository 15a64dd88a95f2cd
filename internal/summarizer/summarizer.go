// Package summarizer 从会话转写中提取结构化的医疗小结。
// 提取逻辑以策略接口的形式暴露，关键词实现可以在不改动业务层的
// 情况下替换为真正的 NLP/LLM 引擎。
package summarizer

import (
	"time"

	"meditalk-go/internal/model"
)

// Extraction 是一次提取的完整结果：自由文本小结加四个结构化字段。
type Extraction struct {
	Content         string
	Symptoms        string
	Diagnosis       string
	Medications     string
	FollowUpActions string
}

// Extractor 定义了小结提取策略。实现必须是纯函数：
// 相同的消息集合和时间输入总是产生相同的输出，没有外部调用和副作用。
type Extractor interface {
	Extract(conv *model.ConversationDetail, messages []model.MessageView, now time.Time) Extraction
}
