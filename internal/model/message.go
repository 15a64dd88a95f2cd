package model

import "time"

// MessageTypeText 是默认的消息类型。
const MessageTypeText = "text"

// Message 对应于数据库中的 messages 表。消息一经写入不可修改。
// SenderRole 是发送时刻的角色快照，不随用户后续变化。
// 未请求翻译时 TranslatedText 与 OriginalText 完全一致。
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversationId"`
	SenderID       uint      `gorm:"not null" json:"senderId"`
	SenderRole     string    `gorm:"type:varchar(20);not null" json:"senderRole"`
	OriginalText   string    `gorm:"type:text;not null" json:"originalText"`
	TranslatedText string    `gorm:"type:text;not null" json:"translatedText"`
	MessageType    string    `gorm:"type:varchar(20);not null;default:text" json:"messageType"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}

// MessageView 是带发送者姓名的消息视图。
type MessageView struct {
	Message
	SenderFirstName string `json:"senderFirstName"`
	SenderLastName  string `json:"senderLastName"`
}
