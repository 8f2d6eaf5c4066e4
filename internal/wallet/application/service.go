// Package application 钱包账本应用服务
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/wallet/domain"
)

type WalletService struct {
	repo   domain.WalletRepository
	logger *slog.Logger
}

func NewWalletService(repo domain.WalletRepository, logger *slog.Logger) *WalletService {
	return &WalletService{
		repo:   repo,
		logger: logger.With("module", "wallet_service"),
	}
}

// RegisterWallet 注册钱包及其初始余额
func (s *WalletService) RegisterWallet(ctx context.Context, address string, balance decimal.Decimal) error {
	if err := s.repo.View(ctx, address, func(*domain.Wallet) error { return nil }); err == nil {
		return domain.ErrWalletAlreadyExists
	}

	wallet := domain.NewWallet(address, balance)
	if err := s.repo.Save(ctx, wallet); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "wallet registered", "address", address, "balance", balance)
	return nil
}

// UpdateBalance 更新钱包当前余额
func (s *WalletService) UpdateBalance(ctx context.Context, address string, balance decimal.Decimal) error {
	return s.repo.Mutate(ctx, address, func(w *domain.Wallet) error {
		w.Balance = balance
		return nil
	})
}

// RecordCmd 记录交易命令
type RecordCmd struct {
	Address      string
	TxHash       string
	Timestamp    time.Time
	Amount       decimal.Decimal
	Kind         string
	Counterparty string
	Description  string
	Successful   bool
}

// RecordTransaction 向钱包历史追加一笔交易
func (s *WalletService) RecordTransaction(ctx context.Context, cmd RecordCmd) error {
	kind, err := domain.ParseTransactionKind(cmd.Kind)
	if err != nil {
		s.logger.WarnContext(ctx, "invalid transaction kind", "address", cmd.Address, "kind", cmd.Kind)
		return err
	}

	tx := domain.Transaction{
		TxHash:       cmd.TxHash,
		Timestamp:    cmd.Timestamp,
		Amount:       cmd.Amount,
		Kind:         kind,
		Counterparty: cmd.Counterparty,
		Description:  cmd.Description,
		Successful:   cmd.Successful,
	}

	if err := s.repo.Mutate(ctx, cmd.Address, func(w *domain.Wallet) error {
		return w.Append(tx)
	}); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "transaction recorded",
		"address", cmd.Address, "tx_hash", cmd.TxHash, "kind", cmd.Kind, "amount", cmd.Amount)
	return nil
}

// ComputeMetrics 按需计算钱包指标
func (s *WalletService) ComputeMetrics(ctx context.Context, address string) (domain.Metrics, error) {
	var m domain.Metrics
	err := s.repo.View(ctx, address, func(w *domain.Wallet) error {
		m = w.ComputeMetrics()
		return nil
	})
	return m, err
}

// Snapshot 返回评分所需的指标与流入金额序列
func (s *WalletService) Snapshot(ctx context.Context, address string) (domain.Metrics, []decimal.Decimal, time.Time, error) {
	var (
		m         domain.Metrics
		inflows   []decimal.Decimal
		createdAt time.Time
	)
	err := s.repo.View(ctx, address, func(w *domain.Wallet) error {
		m = w.ComputeMetrics()
		inflows = w.InflowAmounts()
		createdAt = w.CreatedAt
		return nil
	})
	return m, inflows, createdAt, err
}
