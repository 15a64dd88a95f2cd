// Package events 定义了发送到 Kafka 的领域事件结构。
package events

import "time"

// 事件类型。
const (
	TypeConversationStarted = "conversation.started"
	TypeConversationEnded   = "conversation.ended"
	TypeMessageSent         = "message.sent"
	TypeSummaryGenerated    = "summary.generated"
)

// Event 是一条领域事件。事件发送是尽力而为的：
// 失败只记录日志，绝不影响主流程。
type Event struct {
	Type           string    `json:"type"`
	ConversationID uint      `json:"conversation_id"`
	ActorID        uint      `json:"actor_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
