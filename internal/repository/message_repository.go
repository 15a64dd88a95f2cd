package repository

import (
	"meditalk-go/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 接口定义了消息数据的持久化操作。
type MessageRepository interface {
	Create(msg *model.Message) error
	// ListByConversation 按发送时间升序返回会话的全部消息，
	// 时间相同时按插入顺序（主键）排序。
	ListByConversation(conversationID uint) ([]model.MessageView, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 插入一条新消息。消息一经写入不可修改。
func (r *messageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// ListByConversation 连表取出发送者姓名，保证稳定的时间升序。
func (r *messageRepository) ListByConversation(conversationID uint) ([]model.MessageView, error) {
	var views []model.MessageView
	err := r.db.Raw(`
		SELECT m.*,
			u.first_name AS sender_first_name,
			u.last_name AS sender_last_name
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = ?
		ORDER BY m.created_at ASC, m.id ASC`,
		conversationID).Scan(&views).Error
	return views, err
}
