package repository

import (
	"meditalk-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryRepository 接口定义了会话小结的持久化操作。
type SummaryRepository interface {
	// Upsert 写入小结；conversation_id 已存在时覆盖全部字段并刷新生成时间，
	// 不会为同一会话产生第二条记录。
	Upsert(summary *model.Summary) error
	FindByConversation(conversationID uint) (*model.Summary, error)
}

type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository 创建一个新的 SummaryRepository 实例。
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

// Upsert 依赖 conversation_id 上的唯一索引，用 ON DUPLICATE KEY UPDATE 覆盖旧值。
func (r *summaryRepository) Upsert(summary *model.Summary) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "symptoms", "diagnosis", "medications",
			"follow_up_actions", "generated_by", "generated_at",
		}),
	}).Create(summary).Error
}

// FindByConversation 取出指定会话的小结。
func (r *summaryRepository) FindByConversation(conversationID uint) (*model.Summary, error) {
	var summary model.Summary
	err := r.db.Where("conversation_id = ?", conversationID).First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
