// Package messaging 决策事件 Kafka 发布实现
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/exenlending/internal/decision/domain"
	"github.com/wyfcoding/exenlending/pkg/mq"
)

// KafkaEventPublisher 通过 Kafka 发布决策事件
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 决策事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		topic:    topic,
	}
}

// PublishDecisionMade 发布授信决策完成事件，以钱包地址作为分区键
func (p *KafkaEventPublisher) PublishDecisionMade(ctx context.Context, decision domain.LoanDecision) error {
	if err := p.producer.SendMessage(ctx, p.topic, decision.WalletAddress, decision); err != nil {
		return fmt.Errorf("publish decision event: %w", err)
	}
	return nil
}

// NopEventPublisher 空实现，未配置消息队列时使用
type NopEventPublisher struct{}

// PublishDecisionMade 丢弃事件
func (NopEventPublisher) PublishDecisionMade(context.Context, domain.LoanDecision) error {
	return nil
}
