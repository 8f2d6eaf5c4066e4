// Package domain 国库资金领域模型
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNothingToAllocate = errors.New("fee accumulator is empty")
)

// 创作者费用分配比例
var (
	RewardPoolShare = decimal.NewFromFloat(0.25)
	BuybackShare    = decimal.NewFromFloat(0.25)
)

// Allocation 一次费用分配的结果
type Allocation struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	TotalFees   decimal.Decimal `json:"total_fees"`
	RewardPool  decimal.Decimal `json:"reward_pool"`
	BuybackFund decimal.Decimal `json:"buyback_fund"`
	LendingPool decimal.Decimal `json:"lending_pool"`
}

// Treasury 国库：累积创作者费用并按固定比例划拨
type Treasury struct {
	FeeAccumulator decimal.Decimal
	RewardPool     decimal.Decimal
	BuybackFund    decimal.Decimal

	TotalFeesCollected decimal.Decimal
	TotalToLending     decimal.Decimal

	Allocations []Allocation
}

func NewTreasury() *Treasury {
	return &Treasury{
		FeeAccumulator:     decimal.Zero,
		RewardPool:         decimal.Zero,
		BuybackFund:        decimal.Zero,
		TotalFeesCollected: decimal.Zero,
		TotalToLending:     decimal.Zero,
	}
}

// AddCreatorFees 向累积器追加创作者费用，返回当前累积总额
func (t *Treasury) AddCreatorFees(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	t.FeeAccumulator = t.FeeAccumulator.Add(amount)
	t.TotalFeesCollected = t.TotalFeesCollected.Add(amount)
	return t.FeeAccumulator, nil
}

// AddBuybackFunds 直接向回购资金追加金额
func (t *Treasury) AddBuybackFunds(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	t.BuybackFund = t.BuybackFund.Add(amount)
	return t.BuybackFund, nil
}

// Allocate 将当前累积费用按 25/25/50 划拨到奖励池、回购资金与借贷池。
// 借贷池份额取余数，保证三份之和恰好等于划拨总额。
func (t *Treasury) Allocate(now time.Time) (Allocation, error) {
	if !t.FeeAccumulator.IsPositive() {
		return Allocation{}, ErrNothingToAllocate
	}

	total := t.FeeAccumulator
	rewardShare := total.Mul(RewardPoolShare)
	buybackShare := total.Mul(BuybackShare)
	lendingShare := total.Sub(rewardShare).Sub(buybackShare)

	t.RewardPool = t.RewardPool.Add(rewardShare)
	t.BuybackFund = t.BuybackFund.Add(buybackShare)
	t.TotalToLending = t.TotalToLending.Add(lendingShare)
	t.FeeAccumulator = decimal.Zero

	alloc := Allocation{
		ID:          int64(len(t.Allocations) + 1),
		Timestamp:   now,
		TotalFees:   total,
		RewardPool:  rewardShare,
		BuybackFund: buybackShare,
		LendingPool: lendingShare,
	}
	t.Allocations = append(t.Allocations, alloc)
	return alloc, nil
}
