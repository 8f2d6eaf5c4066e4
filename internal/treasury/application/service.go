// Package application 国库应用服务
package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/treasury/domain"
)

// PoolFunder 借贷池注资入口，由借贷账本服务实现
type PoolFunder interface {
	AddPoolFunds(ctx context.Context, amount decimal.Decimal) error
}

type TreasuryService struct {
	mu       sync.Mutex
	treasury *domain.Treasury
	funder   PoolFunder
	logger   *slog.Logger
	nowFn    func() time.Time
}

func NewTreasuryService(funder PoolFunder, logger *slog.Logger) *TreasuryService {
	return &TreasuryService{
		treasury: domain.NewTreasury(),
		funder:   funder,
		logger:   logger.With("module", "treasury_service"),
		nowFn:    time.Now,
	}
}

// CollectFees 记录一笔创作者费用
func (s *TreasuryService) CollectFees(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.treasury.AddCreatorFees(amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.InfoContext(ctx, "creator fees collected",
		"amount", amount.String(),
		"accumulated", total.String(),
	)
	return total, nil
}

// AddBuybackFunds 向回购资金直接注资
func (s *TreasuryService) AddBuybackFunds(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.treasury.AddBuybackFunds(amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.InfoContext(ctx, "buyback funds added",
		"amount", amount.String(),
		"buyback_fund", total.String(),
	)
	return total, nil
}

// Allocate 划拨累积费用，并将借贷池份额转入借贷池
func (s *TreasuryService) Allocate(ctx context.Context) (domain.Allocation, error) {
	s.mu.Lock()
	alloc, err := s.treasury.Allocate(s.nowFn())
	s.mu.Unlock()
	if err != nil {
		return domain.Allocation{}, err
	}

	if err := s.funder.AddPoolFunds(ctx, alloc.LendingPool); err != nil {
		s.logger.ErrorContext(ctx, "failed to forward lending pool share",
			"allocation_id", alloc.ID,
			"amount", alloc.LendingPool.String(),
			"error", err,
		)
		return domain.Allocation{}, err
	}

	s.logger.InfoContext(ctx, "fees allocated",
		"allocation_id", alloc.ID,
		"total", alloc.TotalFees.String(),
		"reward_pool", alloc.RewardPool.String(),
		"buyback_fund", alloc.BuybackFund.String(),
		"lending_pool", alloc.LendingPool.String(),
	)
	return alloc, nil
}

// Status 国库状态快照
type Status struct {
	FeeAccumulator     string `json:"fee_accumulator"`
	RewardPool         string `json:"reward_pool"`
	BuybackFund        string `json:"buyback_fund"`
	TotalFeesCollected string `json:"total_fees_collected"`
	TotalToLending     string `json:"total_to_lending"`
	AllocationCount    int    `json:"allocation_count"`
}

// GetTreasuryStatus 返回国库当前状态
func (s *TreasuryService) GetTreasuryStatus(ctx context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.treasury
	return Status{
		FeeAccumulator:     t.FeeAccumulator.String(),
		RewardPool:         t.RewardPool.String(),
		BuybackFund:        t.BuybackFund.String(),
		TotalFeesCollected: t.TotalFeesCollected.String(),
		TotalToLending:     t.TotalToLending.String(),
		AllocationCount:    len(t.Allocations),
	}
}
