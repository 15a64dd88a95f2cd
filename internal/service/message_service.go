package service

import (
	"context"
	"strings"
	"time"

	"meditalk-go/internal/events"
	"meditalk-go/internal/model"
	"meditalk-go/internal/repository"
	"meditalk-go/pkg/kafka"
	"meditalk-go/pkg/log"
	"meditalk-go/pkg/translator"
)

// MessageService 定义了消息收发的业务接口。
type MessageService interface {
	// Send 在会话中发送一条消息。translate 为 false 时译文与原文逐字相同；
	// 为 true 时按发送者角色推导翻译方向，翻译失败自动降级为原文，
	// 发送永远不会因为翻译问题而失败。
	Send(ctx context.Context, conversationID uint, sender *model.User, text string, translate bool) (*model.Message, error)
	// List 按时间升序返回会话消息，仅参与者可见。
	List(conversationID, userID uint) ([]model.MessageView, error)
	// Preview 返回一段文本的翻译预览，失败时错误信息可直接展示。
	Preview(ctx context.Context, text, targetLang, sourceLang string) (*translator.Result, error)
}

type messageService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	gateway  translator.Gateway
}

// NewMessageService 创建一个新的 MessageService 实例。
func NewMessageService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, gateway translator.Gateway) MessageService {
	return &messageService{convRepo: convRepo, msgRepo: msgRepo, gateway: gateway}
}

// Send 实现消息发送的编排规则。
func (s *messageService) Send(ctx context.Context, conversationID uint, sender *model.User, text string, translate bool) (*model.Message, error) {
	// 1. 空白消息在任何持久化或翻译调用之前被拒绝
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	// 2. 发送者必须是会话参与者
	conv, err := s.convRepo.FindByIDForUser(conversationID, sender.ID)
	if err != nil {
		return nil, ErrConversationNotFound
	}

	// 3. 已结束的会话拒绝新消息
	if conv.Status != model.StatusActive {
		return nil, ErrConversationEnded
	}

	// 4. 需要翻译时按角色推导方向：医生 → 患者语言，患者 → 医生语言
	translatedText := text
	if translate {
		sourceLang, targetLang := conv.DoctorLanguage, conv.PatientLanguage
		if sender.Role == model.RolePatient {
			sourceLang, targetLang = conv.PatientLanguage, conv.DoctorLanguage
		}
		translatedText = s.gateway.TranslateText(ctx, text, targetLang, sourceLang)
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       sender.ID,
		// 角色在发送时刻快照，不随用户后续变化
		SenderRole:     sender.Role,
		OriginalText:   text,
		TranslatedText: translatedText,
		MessageType:    model.MessageTypeText,
	}
	if err := s.msgRepo.Create(msg); err != nil {
		log.Errorf("[MessageService] 写入消息失败: conversation=%d, sender=%d, error: %v",
			conversationID, sender.ID, err)
		return nil, err
	}

	kafka.ProduceEvent(ctx, events.Event{
		Type:           events.TypeMessageSent,
		ConversationID: conversationID,
		ActorID:        sender.ID,
		OccurredAt:     time.Now(),
	})
	return msg, nil
}

// List 先做参与者校验，再取消息；读故障降级为空列表。
func (s *messageService) List(conversationID, userID uint) ([]model.MessageView, error) {
	if _, err := s.convRepo.FindByIDForUser(conversationID, userID); err != nil {
		return nil, ErrConversationNotFound
	}
	views, err := s.msgRepo.ListByConversation(conversationID)
	if err != nil {
		log.Errorf("[MessageService] 查询消息失败: conversation=%d, error: %v", conversationID, err)
		return []model.MessageView{}, nil
	}
	if views == nil {
		views = []model.MessageView{}
	}
	return views, nil
}

// Preview 直接透传网关结果，供撰写消息时预览译文。
func (s *messageService) Preview(ctx context.Context, text, targetLang, sourceLang string) (*translator.Result, error) {
	return s.gateway.Translate(ctx, text, targetLang, sourceLang)
}
