package service

import (
	"context"
	"errors"
	"time"

	"meditalk-go/internal/events"
	"meditalk-go/internal/model"
	"meditalk-go/internal/repository"
	"meditalk-go/internal/summarizer"
	"meditalk-go/pkg/kafka"
	"meditalk-go/pkg/log"
	"meditalk-go/pkg/storage"

	"gorm.io/gorm"
)

// SummaryService 定义了会话小结的业务接口。
type SummaryService interface {
	// Generate 为会话生成（或重新生成）小结。没有消息时不产生任何写入，
	// 返回 ErrNothingToSummarize。消息集合不变时重复调用产生相同的结构化字段，
	// 且同一会话始终只有一条小结记录。
	Generate(ctx context.Context, conversationID uint, generatedBy *model.User) (*model.Summary, error)
	// Get 返回会话小结，仅参与者可见。
	Get(conversationID, userID uint) (*model.Summary, error)
}

type summaryService struct {
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	summaryRepo repository.SummaryRepository
	extractor   summarizer.Extractor
}

// NewSummaryService 创建一个新的 SummaryService 实例。
func NewSummaryService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository,
	summaryRepo repository.SummaryRepository, extractor summarizer.Extractor) SummaryService {
	return &summaryService{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		summaryRepo: summaryRepo,
		extractor:   extractor,
	}
}

// Generate 实现小结生成的编排规则。
func (s *summaryService) Generate(ctx context.Context, conversationID uint, generatedBy *model.User) (*model.Summary, error) {
	// 1. 生成者必须是会话参与者
	conv, err := s.convRepo.FindByIDForUser(conversationID, generatedBy.ID)
	if err != nil {
		return nil, ErrConversationNotFound
	}

	// 2. 空会话没有可总结的内容，不写入任何记录
	messages, err := s.msgRepo.ListByConversation(conversationID)
	if err != nil {
		log.Errorf("[SummaryService] 读取转写失败: conversation=%d, error: %v", conversationID, err)
		return nil, ErrNothingToSummarize
	}
	if len(messages) == 0 {
		return nil, ErrNothingToSummarize
	}

	// 3. 提取为纯函数调用，持久化由本层负责
	extraction := s.extractor.Extract(conv, messages, time.Now())

	summary := &model.Summary{
		ConversationID:  conversationID,
		Content:         extraction.Content,
		Symptoms:        extraction.Symptoms,
		Diagnosis:       extraction.Diagnosis,
		Medications:     extraction.Medications,
		FollowUpActions: extraction.FollowUpActions,
		GeneratedBy:     generatedBy.ID,
		GeneratedAt:     time.Now(),
	}
	if err := s.summaryRepo.Upsert(summary); err != nil {
		log.Errorf("[SummaryService] 写入小结失败: conversation=%d, error: %v", conversationID, err)
		return nil, err
	}

	log.Infof("[SummaryService] 小结已生成: conversation=%d, by=%d", conversationID, generatedBy.ID)

	// 归档与事件都是尽力而为，失败不影响小结本身
	storage.ArchiveSummary(ctx, conversationID, extraction.Content)
	kafka.ProduceEvent(ctx, events.Event{
		Type:           events.TypeSummaryGenerated,
		ConversationID: conversationID,
		ActorID:        generatedBy.ID,
		OccurredAt:     time.Now(),
	})

	return summary, nil
}

// Get 先做参与者校验，再取小结。
func (s *summaryService) Get(conversationID, userID uint) (*model.Summary, error) {
	if _, err := s.convRepo.FindByIDForUser(conversationID, userID); err != nil {
		return nil, ErrConversationNotFound
	}
	summary, err := s.summaryRepo.FindByConversation(conversationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[SummaryService] 查询小结失败: conversation=%d, error: %v", conversationID, err)
		}
		return nil, ErrSummaryNotFound
	}
	return summary, nil
}
