// Package domain 钱包活动账本领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrWalletAlreadyExists    = errors.New("wallet already registered")
	ErrInvalidTransactionKind = errors.New("invalid transaction kind")
	ErrDuplicateTransaction   = errors.New("duplicate transaction hash")
)

// TransactionKind 交易方向
type TransactionKind string

const (
	KindInflow   TransactionKind = "inflow"   // 资金流入
	KindOutflow  TransactionKind = "outflow"  // 资金流出
	KindInternal TransactionKind = "internal" // 自有钱包间转账
)

// ParseTransactionKind 解析交易方向字符串
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case KindInflow, KindOutflow, KindInternal:
		return TransactionKind(s), nil
	default:
		return "", ErrInvalidTransactionKind
	}
}

// Transaction 单笔交易记录，入账后不可变
type Transaction struct {
	TxHash       string          `json:"tx_hash"`
	Timestamp    time.Time       `json:"timestamp"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         TransactionKind `json:"kind"`
	Counterparty string          `json:"counterparty"`
	Description  string          `json:"description"`
	Successful   bool            `json:"successful"`
}

// Wallet 钱包聚合根。交易序列只追加，插入顺序即时间顺序
type Wallet struct {
	Address      string          `json:"address"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewWallet 注册钱包
func NewWallet(address string, balance decimal.Decimal) *Wallet {
	return &Wallet{
		Address:      address,
		Balance:      balance,
		Transactions: []Transaction{},
		CreatedAt:    time.Now(),
	}
}

// Append 追加一笔交易。同一钱包内交易哈希必须唯一
func (w *Wallet) Append(tx Transaction) error {
	for i := range w.Transactions {
		if w.Transactions[i].TxHash == tx.TxHash {
			return ErrDuplicateTransaction
		}
	}
	w.Transactions = append(w.Transactions, tx)
	return nil
}

// Metrics 钱包流水指标，按需重算，从不持久化
type Metrics struct {
	TotalInflow      decimal.Decimal `json:"total_inflow"`
	TotalOutflow     decimal.Decimal `json:"total_outflow"`
	NetFlow          decimal.Decimal `json:"net_flow"`
	InflowCount      int             `json:"inflow_count"`
	OutflowCount     int             `json:"outflow_count"`
	AvgInflow        decimal.Decimal `json:"avg_inflow"`
	AvgOutflow       decimal.Decimal `json:"avg_outflow"`
	TransactionCount int             `json:"transaction_count"`
	SuccessRate      decimal.Decimal `json:"success_rate"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
}

// ComputeMetrics 从交易序列计算指标。相同输入必然得到相同输出
func (w *Wallet) ComputeMetrics() Metrics {
	m := Metrics{
		TotalInflow:    decimal.Zero,
		TotalOutflow:   decimal.Zero,
		NetFlow:        decimal.Zero,
		AvgInflow:      decimal.Zero,
		AvgOutflow:     decimal.Zero,
		SuccessRate:    decimal.NewFromInt(100),
		CurrentBalance: w.Balance,
	}

	if len(w.Transactions) == 0 {
		return m
	}

	successful := 0
	for i := range w.Transactions {
		tx := &w.Transactions[i]
		switch tx.Kind {
		case KindInflow:
			m.TotalInflow = m.TotalInflow.Add(tx.Amount)
			m.InflowCount++
		case KindOutflow:
			m.TotalOutflow = m.TotalOutflow.Add(tx.Amount)
			m.OutflowCount++
		}
		if tx.Successful {
			successful++
		}
	}

	m.NetFlow = m.TotalInflow.Sub(m.TotalOutflow)
	m.TransactionCount = len(w.Transactions)

	if m.InflowCount > 0 {
		m.AvgInflow = m.TotalInflow.Div(decimal.NewFromInt(int64(m.InflowCount)))
	}
	if m.OutflowCount > 0 {
		m.AvgOutflow = m.TotalOutflow.Div(decimal.NewFromInt(int64(m.OutflowCount)))
	}

	m.SuccessRate = decimal.NewFromInt(int64(successful)).
		Div(decimal.NewFromInt(int64(len(w.Transactions)))).
		Mul(decimal.NewFromInt(100))

	return m
}

// InflowAmounts 返回所有流入交易金额，按入账顺序。评分器的波动性计算需要原始序列
func (w *Wallet) InflowAmounts() []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(w.Transactions))
	for i := range w.Transactions {
		if w.Transactions[i].Kind == KindInflow {
			amounts = append(amounts, w.Transactions[i].Amount)
		}
	}
	return amounts
}

// WalletRepository 钱包仓储接口。读写都在仓储锁内执行，
// 避免指标计算与追加交易交错
type WalletRepository interface {
	Save(ctx context.Context, wallet *Wallet) error
	// View 在读锁内访问钱包
	View(ctx context.Context, address string, fn func(*Wallet) error) error
	// Mutate 在写锁内对钱包执行原子变更
	Mutate(ctx context.Context, address string, fn func(*Wallet) error) error
}
