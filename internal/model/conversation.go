package model

import "time"

// 会话状态。active → ended 为单向迁移，ended 是终态；
// 同一对医生和患者想继续沟通只能新建会话。
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Conversation 对应于数据库中的 conversations 表。
// 一条会话严格关联一名医生和一名患者。
type Conversation struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID        uint       `gorm:"index;not null" json:"doctorId"`
	PatientID       uint       `gorm:"index;not null" json:"patientId"`
	DoctorLanguage  string     `gorm:"type:varchar(10);not null" json:"doctorLanguage"`
	PatientLanguage string     `gorm:"type:varchar(10);not null" json:"patientLanguage"`
	Title           string     `gorm:"type:varchar(255)" json:"title"`
	Status          string     `gorm:"type:varchar(20);not null;default:active" json:"status"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	EndedAt         *time.Time `gorm:"default:null" json:"endedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Conversation) TableName() string {
	return "conversations"
}

// IsParticipant 判断给定用户是否为该会话的参与者。
func (c *Conversation) IsParticipant(userID uint) bool {
	return c.DoctorID == userID || c.PatientID == userID
}

// ConversationDetail 是带参与者姓名的会话视图。
type ConversationDetail struct {
	Conversation
	DoctorFirstName  string `json:"doctorFirstName"`
	DoctorLastName   string `json:"doctorLastName"`
	PatientFirstName string `json:"patientFirstName"`
	PatientLastName  string `json:"patientLastName"`
}

// ConversationListItem 是会话列表/搜索接口返回的聚合视图，
// 在 ConversationDetail 的基础上附带消息数量和是否已有小结。
type ConversationListItem struct {
	ConversationDetail
	MessageCount int64 `json:"messageCount"`
	HasSummary   bool  `json:"hasSummary"`
}
