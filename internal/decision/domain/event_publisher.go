package domain

import "context"

// EventPublisher 决策事件发布接口
type EventPublisher interface {
	// PublishDecisionMade 发布授信决策完成事件
	PublishDecisionMade(ctx context.Context, decision LoanDecision) error
}
