// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"meditalk-go/internal/config"
	"meditalk-go/internal/events"
	"meditalk-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。Brokers 为空时跳过初始化，
// 此时 ProduceEvent 是空操作。
func InitProducer(cfg config.KafkaConfig) {
	if cfg.Brokers == "" {
		log.Info("未配置 Kafka brokers，领域事件发送已禁用")
		return
	}
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceEvent 发送一条领域事件到 Kafka。
// 发送失败只记录日志，调用方的主流程不受影响。
func ProduceEvent(ctx context.Context, event events.Event) {
	if producer == nil {
		return
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		log.Errorf("序列化领域事件失败: %v", err)
		return
	}

	err = producer.WriteMessages(ctx, kafka.Message{Value: eventBytes})
	if err != nil {
		log.Errorf("发送领域事件失败: type=%s, conversation=%d, error: %v",
			event.Type, event.ConversationID, err)
		return
	}
	log.Debugf("领域事件已发送: type=%s, conversation=%d", event.Type, event.ConversationID)
}
