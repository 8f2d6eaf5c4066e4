package domain

import "github.com/shopspring/decimal"

// LendingPool 放款资金池。不变式：余额永不为负，不足时拒绝而非截断
type LendingPool struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

// NewLendingPool 创建资金池
func NewLendingPool(address string, openingBalance decimal.Decimal) *LendingPool {
	return &LendingPool{
		Address: address,
		Balance: openingBalance,
	}
}

// Debit 扣减余额，余额不足时整体拒绝
func (p *LendingPool) Debit(amount decimal.Decimal) error {
	if p.Balance.LessThan(amount) {
		return ErrInsufficientPoolFunds
	}
	p.Balance = p.Balance.Sub(amount)
	return nil
}

// Credit 增加余额
func (p *LendingPool) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	p.Balance = p.Balance.Add(amount)
	return nil
}
