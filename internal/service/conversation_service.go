package service

import (
	"context"
	"errors"
	"time"

	"meditalk-go/internal/events"
	"meditalk-go/internal/model"
	"meditalk-go/internal/repository"
	"meditalk-go/pkg/kafka"
	"meditalk-go/pkg/log"

	"gorm.io/gorm"
)

// 发起会诊时对已有 active 会话的处理方式。
// 默认（空值）时发现已有会话会返回 ErrActiveConversation，由调用方显式选择。
const (
	StartModeDefault  = ""
	StartModeContinue = "continue"
	StartModeRestart  = "restart"
)

// ConversationService 定义了会话编排的业务接口。
type ConversationService interface {
	// StartConsultation 由医生发起会诊。同一医患对之间至多存在一条 active 会话：
	// 已有 active 会话时要么返回 ErrActiveConversation（附带已有会话）要求显式选择，
	// 要么按 mode 继续旧会话或结束旧会话并新建。
	StartConsultation(ctx context.Context, doctor *model.User, patientID uint, patientLanguage, title, mode string) (*model.Conversation, error)
	// List 返回用户可见的会话；term 非空时执行子串搜索。
	List(userID uint, role, term string) []model.ConversationListItem
	// GetByID 只对参与者返回会话，其余情况一律 ErrConversationNotFound。
	GetByID(conversationID, userID uint) (*model.ConversationDetail, error)
	// End 结束会话。active → ended 单向，ended 为终态。
	End(ctx context.Context, conversationID, userID uint) error
	// ActiveConversation 返回医患对之间的 active 会话，没有则为 nil。
	ActiveConversation(doctorID, patientID uint) *model.Conversation
}

type conversationService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(convRepo repository.ConversationRepository, userRepo repository.UserRepository) ConversationService {
	return &conversationService{convRepo: convRepo, userRepo: userRepo}
}

// StartConsultation 实现发起会诊的编排规则。
func (s *conversationService) StartConsultation(ctx context.Context, doctor *model.User, patientID uint, patientLanguage, title, mode string) (*model.Conversation, error) {
	// 1. 校验患者存在且角色正确
	patient, err := s.userRepo.FindByID(patientID)
	if err != nil || patient.Role != model.RolePatient {
		return nil, ErrPatientNotFound
	}

	if patientLanguage == "" {
		patientLanguage = "en"
	}

	// 2. 检查是否已有 active 会话
	active, err := s.convRepo.FindActive(doctor.ID, patientID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[ConversationService] 查询 active 会话失败: doctor=%d, patient=%d, error: %v",
			doctor.ID, patientID, err)
		return nil, err
	}

	fresh := &model.Conversation{
		DoctorID:  doctor.ID,
		PatientID: patientID,
		// 医生侧语言固定为英语，翻译方向由此推导
		DoctorLanguage:  "en",
		PatientLanguage: patientLanguage,
		Title:           title,
		Status:          model.StatusActive,
	}

	if active != nil {
		switch mode {
		case StartModeContinue:
			// 继续已有会话，不产生新记录
			return active, nil
		case StartModeRestart:
			// 旧会话结束与新会话创建在同一事务中完成
			if err := s.convRepo.EndAndCreate(active.ID, fresh); err != nil {
				log.Errorf("[ConversationService] 重启会话失败: old=%d, error: %v", active.ID, err)
				return nil, err
			}
			kafka.ProduceEvent(ctx, events.Event{
				Type:           events.TypeConversationEnded,
				ConversationID: active.ID,
				ActorID:        doctor.ID,
				OccurredAt:     time.Now(),
			})
		default:
			// 绝不静默创建重复的 active 会话，必须由调用方显式选择
			return active, ErrActiveConversation
		}
	} else {
		if err := s.convRepo.Create(fresh); err != nil {
			log.Errorf("[ConversationService] 创建会话失败: doctor=%d, patient=%d, error: %v",
				doctor.ID, patientID, err)
			return nil, err
		}
	}

	log.Infof("[ConversationService] 会诊已发起: id=%d, doctor=%d, patient=%d, lang=%s",
		fresh.ID, doctor.ID, patientID, patientLanguage)
	kafka.ProduceEvent(ctx, events.Event{
		Type:           events.TypeConversationStarted,
		ConversationID: fresh.ID,
		ActorID:        doctor.ID,
		OccurredAt:     time.Now(),
	})
	return fresh, nil
}

// List 的基础设施故障降级为空列表，调用方无法区分“没有数据”和“查询失败”。
func (s *conversationService) List(userID uint, role, term string) []model.ConversationListItem {
	var items []model.ConversationListItem
	var err error
	if term == "" {
		items, err = s.convRepo.ListByUser(userID, role)
	} else {
		items, err = s.convRepo.Search(userID, role, term)
	}
	if err != nil {
		log.Errorf("[ConversationService] 查询会话列表失败: user=%d, error: %v", userID, err)
		return []model.ConversationListItem{}
	}
	if items == nil {
		items = []model.ConversationListItem{}
	}
	return items
}

// GetByID 把“无权访问”与“不存在”折叠为同一个错误。
func (s *conversationService) GetByID(conversationID, userID uint) (*model.ConversationDetail, error) {
	detail, err := s.convRepo.FindByIDForUser(conversationID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[ConversationService] 查询会话失败: id=%d, error: %v", conversationID, err)
		}
		return nil, ErrConversationNotFound
	}
	return detail, nil
}

// End 结束会话。已结束的会话不能再次结束，也不存在恢复为 active 的路径。
func (s *conversationService) End(ctx context.Context, conversationID, userID uint) error {
	detail, err := s.GetByID(conversationID, userID)
	if err != nil {
		return err
	}
	if detail.Status != model.StatusActive {
		return ErrConversationEnded
	}
	if err := s.convRepo.UpdateStatus(conversationID, model.StatusEnded); err != nil {
		log.Errorf("[ConversationService] 结束会话失败: id=%d, error: %v", conversationID, err)
		return err
	}
	log.Infof("[ConversationService] 会话已结束: id=%d, by=%d", conversationID, userID)
	kafka.ProduceEvent(ctx, events.Event{
		Type:           events.TypeConversationEnded,
		ConversationID: conversationID,
		ActorID:        userID,
		OccurredAt:     time.Now(),
	})
	return nil
}

// ActiveConversation 查询失败与不存在都返回 nil。
func (s *conversationService) ActiveConversation(doctorID, patientID uint) *model.Conversation {
	active, err := s.convRepo.FindActive(doctorID, patientID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[ConversationService] 查询 active 会话失败: doctor=%d, patient=%d, error: %v",
				doctorID, patientID, err)
		}
		return nil
	}
	return active
}
