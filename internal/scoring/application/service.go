// Package application 信用评分应用服务
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	scoringdomain "github.com/wyfcoding/exenlending/internal/scoring/domain"
	walletdomain "github.com/wyfcoding/exenlending/internal/wallet/domain"
)

// ActivityProvider 为评分器提供钱包活动快照
type ActivityProvider interface {
	Snapshot(ctx context.Context, address string) (walletdomain.Metrics, []decimal.Decimal, time.Time, error)
}

// ScoringService 信用评分应用服务
type ScoringService struct {
	activity ActivityProvider
	logger   *slog.Logger
}

// NewScoringService 创建信用评分服务
func NewScoringService(activity ActivityProvider, logger *slog.Logger) *ScoringService {
	return &ScoringService{
		activity: activity,
		logger:   logger.With("module", "scoring"),
	}
}

// ScoreWallet 对指定钱包地址生成信用评分报告
func (s *ScoringService) ScoreWallet(ctx context.Context, address string) (scoringdomain.Report, error) {
	metrics, inflows, createdAt, err := s.activity.Snapshot(ctx, address)
	if err != nil {
		s.logger.Warn("score wallet failed", "address", address, "error", err)
		return scoringdomain.Report{}, err
	}

	report := scoringdomain.Score(address, metrics, inflows, createdAt)

	s.logger.Info("wallet scored",
		"address", address,
		"credit_score", report.CreditScore.String(),
		"rating", string(report.Rating),
		"effective_rate", report.EffectiveRate.String(),
	)
	return report, nil
}
