package repository

import (
	"time"

	"meditalk-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 接口定义了会话数据的持久化操作。
type ConversationRepository interface {
	Create(conv *model.Conversation) error
	FindByID(id uint) (*model.Conversation, error)
	// FindByIDForUser 只在 userID 为会话参与者时返回会话，
	// 无权访问与不存在同样返回 gorm.ErrRecordNotFound。
	FindByIDForUser(id, userID uint) (*model.ConversationDetail, error)
	// FindActive 返回医患对之间最近创建的 active 会话。
	FindActive(doctorID, patientID uint) (*model.Conversation, error)
	ListByUser(userID uint, role string) ([]model.ConversationListItem, error)
	Search(userID uint, role, term string) ([]model.ConversationListItem, error)
	UpdateStatus(id uint, status string) error
	// EndAndCreate 在同一事务中结束旧会话并创建新会话，
	// 避免检查-写入竞态产生同一医患对的两条 active 记录。
	EndAndCreate(oldID uint, fresh *model.Conversation) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// listSelect 是列表/详情视图共用的投影：会话全部列加医患双方姓名。
const listSelect = `c.*,
	u1.first_name AS doctor_first_name, u1.last_name AS doctor_last_name,
	u2.first_name AS patient_first_name, u2.last_name AS patient_last_name`

// Create 插入一条新的会话记录。
func (r *conversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByID 根据主键查找会话，不做访问控制。
func (r *conversationRepository) FindByID(id uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByIDForUser 通过查询条件完成访问控制：参与者之外的用户拿不到任何数据。
func (r *conversationRepository) FindByIDForUser(id, userID uint) (*model.ConversationDetail, error) {
	var detail model.ConversationDetail
	err := r.db.Raw(`
		SELECT `+listSelect+`
		FROM conversations c
		JOIN users u1 ON c.doctor_id = u1.id
		JOIN users u2 ON c.patient_id = u2.id
		WHERE c.id = ? AND (c.doctor_id = ? OR c.patient_id = ?)`,
		id, userID, userID).Scan(&detail).Error
	if err != nil {
		return nil, err
	}
	if detail.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &detail, nil
}

// FindActive 查找医患对之间状态为 active 的最新会话。
func (r *conversationRepository) FindActive(doctorID, patientID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("doctor_id = ? AND patient_id = ? AND status = ?",
		doctorID, patientID, model.StatusActive).
		Order("created_at DESC").
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListByUser 返回用户可见的全部会话：医生看到自己作为 doctor 的会话，
// 患者看到自己作为 patient 的会话，附带消息数和是否已有小结。
func (r *conversationRepository) ListByUser(userID uint, role string) ([]model.ConversationListItem, error) {
	column := "c.patient_id"
	if role == model.RoleDoctor {
		column = "c.doctor_id"
	}

	var items []model.ConversationListItem
	err := r.db.Raw(`
		SELECT `+listSelect+`,
			COUNT(m.id) AS message_count,
			EXISTS(SELECT 1 FROM summaries s WHERE s.conversation_id = c.id) AS has_summary
		FROM conversations c
		JOIN users u1 ON c.doctor_id = u1.id
		JOIN users u2 ON c.patient_id = u2.id
		LEFT JOIN messages m ON c.id = m.conversation_id
		WHERE `+column+` = ?
		GROUP BY c.id
		ORDER BY c.created_at DESC`,
		userID).Scan(&items).Error
	return items, err
}

// Search 在 ListByUser 的可见范围内按关键词过滤。
// 匹配范围：标题、对方姓名、消息原文与译文，utf8mb4_unicode_ci 下不区分大小写。
func (r *conversationRepository) Search(userID uint, role, term string) ([]model.ConversationListItem, error) {
	ownColumn, counterpart := "c.patient_id", "u1"
	if role == model.RoleDoctor {
		ownColumn, counterpart = "c.doctor_id", "u2"
	}
	pattern := "%" + term + "%"

	var items []model.ConversationListItem
	err := r.db.Raw(`
		SELECT DISTINCT `+listSelect+`,
			COUNT(m.id) AS message_count,
			EXISTS(SELECT 1 FROM summaries s WHERE s.conversation_id = c.id) AS has_summary
		FROM conversations c
		JOIN users u1 ON c.doctor_id = u1.id
		JOIN users u2 ON c.patient_id = u2.id
		LEFT JOIN messages m ON c.id = m.conversation_id
		WHERE `+ownColumn+` = ?
		  AND (c.title LIKE ?
		       OR `+counterpart+`.first_name LIKE ?
		       OR `+counterpart+`.last_name LIKE ?
		       OR m.original_text LIKE ?
		       OR m.translated_text LIKE ?)
		GROUP BY c.id
		ORDER BY c.created_at DESC`,
		userID, pattern, pattern, pattern, pattern, pattern).Scan(&items).Error
	return items, err
}

// UpdateStatus 无条件写入会话状态，何时合法由调用方决定。
// 置为 ended 时同时记录结束时间。
func (r *conversationRepository) UpdateStatus(id uint, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == model.StatusEnded {
		updates["ended_at"] = time.Now()
	}
	return r.db.Model(&model.Conversation{}).Where("id = ?", id).Updates(updates).Error
}

// EndAndCreate 以单个事务执行“结束旧会话 + 创建新会话”。
func (r *conversationRepository) EndAndCreate(oldID uint, fresh *model.Conversation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Conversation{}).
			Where("id = ?", oldID).
			Updates(map[string]interface{}{
				"status":   model.StatusEnded,
				"ended_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		return tx.Create(fresh).Error
	})
}
