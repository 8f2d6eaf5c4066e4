// Package application 授信决策应用服务
package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/decision/domain"
	"github.com/wyfcoding/exenlending/pkg/idgen"
	"github.com/wyfcoding/exenlending/pkg/metrics"
)

// DecisionService 授信决策应用服务，维护只追加的决策日志
type DecisionService struct {
	engine    *domain.Engine
	publisher domain.EventPublisher
	idgen     idgen.Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu        sync.RWMutex
	decisions []domain.LoanDecision
}

// NewDecisionService 创建授信决策服务
func NewDecisionService(engine *domain.Engine, publisher domain.EventPublisher, gen idgen.Generator, m *metrics.Metrics, logger *slog.Logger) *DecisionService {
	return &DecisionService{
		engine:    engine,
		publisher: publisher,
		idgen:     gen,
		metrics:   m,
		logger:    logger.With("module", "decision"),
	}
}

// Decide 处理借款申请并记录决策。申请未携带 ID 时自动生成
func (s *DecisionService) Decide(ctx context.Context, req domain.LoanRequest) (domain.LoanDecision, error) {
	if req.RequestID == "" {
		req.RequestID = s.idgen.Next("REQ")
	}

	decision := s.engine.Decide(s.idgen.Next("DECISION"), req)

	s.mu.Lock()
	s.decisions = append(s.decisions, decision)
	s.mu.Unlock()

	s.metrics.DecisionsTotal.WithLabelValues(string(decision.Outcome)).Inc()

	s.logger.Info("loan decision made",
		"decision_id", decision.DecisionID,
		"request_id", decision.RequestID,
		"wallet", decision.WalletAddress,
		"outcome", string(decision.Outcome),
		"overall_risk", decision.RiskAssessment.OverallRiskScore.String(),
		"confidence", decision.ConfidenceScore.String(),
	)

	if err := s.publisher.PublishDecisionMade(ctx, decision); err != nil {
		// 决策已落日志，事件发布失败只告警不回滚
		s.logger.Warn("publish decision event failed",
			"decision_id", decision.DecisionID, "error", err)
	}

	return decision, nil
}

// Stats 决策引擎统计
type Stats struct {
	TotalDecisions      int    `json:"total_decisions"`
	Approved            int    `json:"approved"`
	ConditionalApproval int    `json:"conditional_approval"`
	Denied              int    `json:"denied"`
	PendingReview       int    `json:"pending_review"`
	ApprovalRate        string `json:"approval_rate"`
	AutoDecisionRate    string `json:"auto_decision_rate"`
	AvgConfidence       string `json:"avg_confidence"`
}

// GetStats 汇总决策日志统计
func (s *DecisionService) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalDecisions:   len(s.decisions),
		ApprovalRate:     "0%",
		AutoDecisionRate: "0%",
		AvgConfidence:    "0",
	}

	totalConfidence := decimal.Zero
	for _, d := range s.decisions {
		switch d.Outcome {
		case domain.OutcomeApproved:
			stats.Approved++
		case domain.OutcomeConditionalApproval:
			stats.ConditionalApproval++
		case domain.OutcomeDenied:
			stats.Denied++
		case domain.OutcomePendingReview:
			stats.PendingReview++
		}
		totalConfidence = totalConfidence.Add(d.ConfidenceScore)
	}

	if stats.TotalDecisions > 0 {
		total := decimal.NewFromInt(int64(stats.TotalDecisions))
		hundred := decimal.NewFromInt(100)

		stats.ApprovalRate = decimal.NewFromInt(int64(stats.Approved)).
			Mul(hundred).Div(total).StringFixed(1) + "%"

		auto := stats.Approved + stats.ConditionalApproval + stats.Denied
		stats.AutoDecisionRate = decimal.NewFromInt(int64(auto)).
			Mul(hundred).Div(total).StringFixed(1) + "%"

		stats.AvgConfidence = totalConfidence.Div(total).String()
	}

	return stats
}
