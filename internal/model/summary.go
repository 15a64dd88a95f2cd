package model

import "time"

// Summary 对应于数据库中的 summaries 表。
// 每个会话至多一条（conversation_id 上有唯一索引）；
// 重新生成时覆盖全部字段并刷新 GeneratedAt，而不是新增行。
type Summary struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID  uint      `gorm:"uniqueIndex;not null" json:"conversationId"`
	Content         string    `gorm:"type:text" json:"content"`
	Symptoms        string    `gorm:"type:text" json:"symptoms"`
	Diagnosis       string    `gorm:"type:text" json:"diagnosis"`
	Medications     string    `gorm:"type:text" json:"medications"`
	FollowUpActions string    `gorm:"type:text" json:"followUpActions"`
	GeneratedBy     uint      `gorm:"not null" json:"generatedBy"`
	GeneratedAt     time.Time `gorm:"autoCreateTime" json:"generatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Summary) TableName() string {
	return "summaries"
}
