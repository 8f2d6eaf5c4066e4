// Package messaging 贷款生命周期事件 Kafka 发布实现
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/exenlending/internal/lending/domain"
	"github.com/wyfcoding/exenlending/pkg/mq"
)

// KafkaEventPublisher 通过 Kafka 发布贷款生命周期事件
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 生命周期事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		topic:    topic,
	}
}

// PublishLifecycle 发布生命周期事件，以贷款 ID 作为分区键保证同贷款有序
func (p *KafkaEventPublisher) PublishLifecycle(ctx context.Context, event domain.LifecycleEvent) error {
	if err := p.producer.SendMessage(ctx, p.topic, event.LoanID, event); err != nil {
		return fmt.Errorf("publish lifecycle event: %w", err)
	}
	return nil
}

// NopEventPublisher 空实现，未配置消息队列时使用
type NopEventPublisher struct{}

// PublishLifecycle 丢弃事件
func (NopEventPublisher) PublishLifecycle(context.Context, domain.LifecycleEvent) error {
	return nil
}
